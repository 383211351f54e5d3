package redis

import (
	"fmt"
	"strings"

	"github.com/mcoot/datathon/internal/model"
)

// Key prefix for all site data
const keyPrefix = "datathon"

// accountKey returns the Redis key for an Account
func accountKey(id model.UserID) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> user_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, strings.ToLower(email))
}
