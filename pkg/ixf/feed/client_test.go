package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
  "version": "1.0",
  "timestamp": "2026-07-31T00:00:00Z",
  "member_list": [
    {"asnum": 64500, "member_type": "peering", "connection_list": [
      {"state": "active", "if_list": [{"if_speed": 10000}],
       "vlan_list": [{"vlan_id": 0, "ipv4": {"address": "192.0.2.1"}}]}
    ]}
  ]
}`

func TestFetchDecodesAndCaches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleDoc))
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	doc, raw, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Len(t, doc.MemberList, 1)
	assert.Equal(t, uint32(64500), doc.MemberList[0].ASNum)
	assert.NotEmpty(t, raw)

	cachedDoc, _, err := c.FetchCached(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, doc.MemberList[0].ASNum, cachedDoc.MemberList[0].ASNum)
}

func TestFetchFallsBackToCacheOnFailure(t *testing.T) {
	var fail bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sampleDoc))
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	_, _, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	fail = true
	doc, _, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.NotNil(t, doc)
	assert.Len(t, doc.MemberList, 1)
}

func TestFetchCachedWithoutPriorFetchErrors(t *testing.T) {
	c := NewClient(time.Second)
	_, _, err := c.FetchCached("https://ix.example/export.json")
	assert.Error(t, err)
}

func TestValidateRejectsMissingFields(t *testing.T) {
	assert.Error(t, Validate([]byte(`{}`)))
	assert.Error(t, Validate([]byte(`not json`)))
	assert.NoError(t, Validate([]byte(sampleDoc)))
}

func TestSchemaMarksTopLevelFieldsRequired(t *testing.T) {
	s := Schema()
	assert.Contains(t, s.Required, "version")
	assert.Contains(t, s.Required, "member_list")
}
