package id

import "github.com/google/uuid"

// UUIDGenerator yields random UUID strings for ledger transaction IDs.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string { return uuid.NewString() }
