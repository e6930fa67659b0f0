package greeter

import (
	"encoding/binary"
	"fmt"

	"github.com/delfinacorr/hello-tiburona/internal/identity"
)

// State layout
//
//	0x01           (admin)            instance   -> identity
//	0x02           (greeting count)   instance   -> uint32
//	0x03 [id]      (last greeting)    persistent -> text
//	0x04 [id]      (user count)       instance   -> uint32
//	0x05           (character limit)  instance   -> uint32
//
// Singletons are exactly one byte and per-identity keys always carry the
// variant prefix, so keys of different variants never collide.
const (
	prefixAdmin         byte = 0x01
	prefixGreetingCount byte = 0x02
	prefixLastGreeting  byte = 0x03
	prefixUserCount     byte = 0x04
	prefixCharLimit     byte = 0x05
)

// Key is one variant of the contract's data key.
type Key struct {
	prefix byte
	id     identity.Identity
}

func AdminKey() Key                            { return Key{prefix: prefixAdmin} }
func GreetingCountKey() Key                    { return Key{prefix: prefixGreetingCount} }
func LastGreetingKey(id identity.Identity) Key { return Key{prefix: prefixLastGreeting, id: id} }
func UserCountKey(id identity.Identity) Key    { return Key{prefix: prefixUserCount, id: id} }
func CharLimitKey() Key                        { return Key{prefix: prefixCharLimit} }

// Bytes returns the storage encoding of k.
func (k Key) Bytes() []byte {
	return append([]byte{k.prefix}, k.id...)
}

func (k Key) String() string {
	switch k.prefix {
	case prefixAdmin:
		return "Admin"
	case prefixGreetingCount:
		return "GreetingCount"
	case prefixLastGreeting:
		return fmt.Sprintf("LastGreeting(%s)", k.id)
	case prefixUserCount:
		return fmt.Sprintf("UserCount(%s)", k.id)
	case prefixCharLimit:
		return "CharLimit"
	default:
		return fmt.Sprintf("Key(0x%02x)", k.prefix)
	}
}

func encodeUint32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return buf
}

func decodeUint32(k Key, b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("greeter: corrupt %s (%d bytes)", k, len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}
