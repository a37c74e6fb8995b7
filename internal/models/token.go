package models

import "time"

// UserToken is a persisted session record. A token row is owned by its user
// and is removed by the database cascade when the user is deleted.
type UserToken struct {
	TID    int       `json:"tid"`
	Token  string    `json:"token"`
	UID    int       `json:"uid"`
	Expiry time.Time `json:"expiry"`
}
