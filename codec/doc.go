// Package codec serializes values for durable storage.
//
// It provides a generic Codec interface with JSON, MessagePack, and CBOR
// implementations, plus a size-limiting wrapper for payloads read back from
// shared storage such as Redis.
package codec
