package models

import "errors"

var (
	ErrIXLanNotFound   = errors.New("models: ixlan not found")
	ErrNetworkNotFound = errors.New("models: network not found")
	ErrNetIXLanNotFound = errors.New("models: netixlan not found")
	ErrProposalNotFound = errors.New("models: proposal not found")

	ErrDuplicateAddress = errors.New("models: address already in use on this ixlan")
	ErrNoVLANEntries    = errors.New("models: no vlan entries in feed row")
)
