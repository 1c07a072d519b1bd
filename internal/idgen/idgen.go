// Package idgen provides short, URL-safe unique ID generation backed by
// nanoid. Its main consumer is the bus subscriber, which names each broker
// connection with a fresh client ID.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// ClientPrefix is prepended to generated bus client IDs.
var ClientPrefix = "lookout-"

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// ClientID returns a new bus client identifier.
func ClientID() (string, error) {
	return GenerateWithPrefix(ClientPrefix)
}

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
