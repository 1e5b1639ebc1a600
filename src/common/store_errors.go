package common

import (
	"errors"
	"fmt"
)

// StoreErrType enumerates the error conditions reported by block stores.
type StoreErrType uint32

const (
	// KeyNotFound is returned when no record exists under the requested key.
	KeyNotFound StoreErrType = iota
	// KeyAlreadyExists is returned when a record would overwrite a different
	// one under the same key.
	KeyAlreadyExists
	// Empty is returned when an operation is given nothing to store.
	Empty
	// Closed is returned when the store has been closed.
	Closed
)

// StoreErr is a typed error produced by the store package. It carries the kind
// of data that was accessed and the key that caused the error.
type StoreErr struct {
	dataType string
	errType  StoreErrType
	key      string
}

// NewStoreErr ...
func NewStoreErr(dataType string, errType StoreErrType, key string) StoreErr {
	return StoreErr{
		dataType: dataType,
		errType:  errType,
		key:      key,
	}
}

// Error implements the error interface.
func (e StoreErr) Error() string {
	m := ""
	switch e.errType {
	case KeyNotFound:
		m = "Not Found"
	case KeyAlreadyExists:
		m = "Key Already Exists"
	case Empty:
		m = "Empty"
	case Closed:
		m = "Closed"
	}

	return fmt.Sprintf("%s, %s, %s", e.dataType, e.key, m)
}

// IsStore checks that an error is, or wraps, a StoreErr whose code matches the
// provided StoreErr code.
func IsStore(err error, t StoreErrType) bool {
	var storeErr StoreErr
	return errors.As(err, &storeErr) && storeErr.errType == t
}
