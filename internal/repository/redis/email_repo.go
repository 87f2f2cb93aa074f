package redis

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultEmailCodeTTL = 5 * time.Minute
	WorkEmailPrefix     = "email:code:company"

	PendingSuffix   = "pending"
	ConfirmedSuffix = "confirmed"
)

var (
	ErrEmailNotFound       = errors.New("email code not found")
	ErrEmailCodeDelFailed  = errors.New("email code delete failed")
	ErrCodePendingFailed   = errors.New("code pending failed")
	ErrCodeConfirmedFailed = errors.New("code confirmed failed")
)

// EmailRepository holds the work-email verification codes for the company
// badge pre-check. Two phases: pending after send, confirmed once the user
// echoes the code back.
type EmailRepository struct{}

func (e *EmailRepository) SetCodePending(email, code string) error {
	key := fmt.Sprintf("%s:%s:%s", WorkEmailPrefix, PendingSuffix, email)
	if err := Client.Set(context.Background(), key, code, DefaultEmailCodeTTL).Err(); err != nil {
		return ErrCodePendingFailed
	}
	return nil
}

func (e *EmailRepository) GetCodePending(email string) (string, error) {
	key := fmt.Sprintf("%s:%s:%s", WorkEmailPrefix, PendingSuffix, email)
	val, err := Client.Get(context.Background(), key).Result()
	if err != nil {
		return "", ErrEmailNotFound
	}
	return val, nil
}

// MarkConfirmed atomically moves pending -> confirmed: read value, write
// destination with a fresh TTL, delete source.
func (e *EmailRepository) MarkConfirmed(email string) error {
	srcKey := fmt.Sprintf("%s:%s:%s", WorkEmailPrefix, PendingSuffix, email)
	dstKey := fmt.Sprintf("%s:%s:%s", WorkEmailPrefix, ConfirmedSuffix, email)

	script := `
local val = redis.call("GET", KEYS[1])
if not val then
  return 0
end
redis.call("SET", KEYS[2], val, "PX", ARGV[1])
redis.call("DEL", KEYS[1])
return 1
`
	px := int64(DefaultEmailCodeTTL / time.Millisecond)
	res := Client.Eval(context.Background(), script, []string{srcKey, dstKey}, px)
	if err := res.Err(); err != nil {
		return ErrCodeConfirmedFailed
	}
	ok, _ := res.Int()
	if ok != 1 {
		return ErrCodeConfirmedFailed
	}
	return nil
}

func (e *EmailRepository) IsConfirmed(email string) (bool, error) {
	key := fmt.Sprintf("%s:%s:%s", WorkEmailPrefix, ConfirmedSuffix, email)
	n, err := Client.Exists(context.Background(), key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (e *EmailRepository) DeleteCodePending(email string) error {
	key := fmt.Sprintf("%s:%s:%s", WorkEmailPrefix, PendingSuffix, email)
	if err := Client.Del(context.Background(), key).Err(); err != nil {
		return ErrEmailCodeDelFailed
	}
	return nil
}
