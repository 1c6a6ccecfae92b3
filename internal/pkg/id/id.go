package id

import "github.com/oklog/ulid/v2"

// New returns a ULID for account identifiers. ULIDs sort by creation time, which
// keeps the user_id-index roughly insertion ordered.
func New() string {
	return ulid.Make().String()
}
