package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ixfabric/ixfrecon/pkg/ixf/feed"
)

func TestSanitizeMergesSplitVlanEntries(t *testing.T) {
	doc := &feed.Document{
		MemberList: []feed.Member{{
			ASNum: 64500,
			ConnectionList: []feed.Connection{{
				VlanList: []feed.Vlan{
					{VlanID: 0, IPv4: &feed.VlanAddr{Address: "192.0.2.1"}},
					{VlanID: 0, IPv6: &feed.VlanAddr{Address: "2001:db8::1"}},
				},
			}},
		}},
	}

	require.NoError(t, Sanitize(doc))
	vlans := doc.MemberList[0].ConnectionList[0].VlanList
	require.Len(t, vlans, 1)
	assert.Equal(t, "192.0.2.1", vlans[0].IPv4.Address)
	assert.Equal(t, "2001:db8::1", vlans[0].IPv6.Address)
}

func TestSanitizeLeavesDistinctVlansAlone(t *testing.T) {
	doc := &feed.Document{
		MemberList: []feed.Member{{
			ASNum: 64500,
			ConnectionList: []feed.Connection{{
				VlanList: []feed.Vlan{
					{VlanID: 1, IPv4: &feed.VlanAddr{Address: "192.0.2.1"}},
					{VlanID: 2, IPv4: &feed.VlanAddr{Address: "192.0.2.2"}},
				},
			}},
		}},
	}

	require.NoError(t, Sanitize(doc))
	assert.Len(t, doc.MemberList[0].ConnectionList[0].VlanList, 2)
}

func TestSanitizeErrorsWhenNoVlanListAnywhere(t *testing.T) {
	doc := &feed.Document{
		MemberList: []feed.Member{{
			ASNum:          64500,
			ConnectionList: []feed.Connection{{}},
		}},
	}

	err := Sanitize(doc)
	assert.ErrorIs(t, err, ErrNoVLANEntries)
}
