package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []*Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg *Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type recordingStore struct {
	saved []*Message
}

func (s *recordingStore) Save(_ context.Context, msg *Message) error {
	s.saved = append(s.saved, msg)
	return nil
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store Store, sender Sender) *Service {
	s := NewService(store, sender, 0, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func validRequest(answer int) Request {
	return Request{
		Name:       "Ada",
		Email:      "ada@example.com",
		Message:    "Hello there",
		MathAnswer: Answer{Value: answer, Valid: true},
	}
}

func cookieFor(answer int) string {
	return Challenge{Num1: answer - 1, Num2: 1}.CookieValue(fixedNow.Add(DefaultChallengeTTL))
}

func TestChallenge(t *testing.T) {
	for range 50 {
		c := NewChallenge()
		assert.GreaterOrEqual(t, c.Num1, 1)
		assert.LessOrEqual(t, c.Num1, 9)
		assert.GreaterOrEqual(t, c.Num2, 1)
		assert.LessOrEqual(t, c.Num2, 9)
	}

	c := Challenge{Num1: 4, Num2: 5}
	value := c.CookieValue(fixedNow.Add(time.Minute))

	answer, ok := ParseCookieValue(value, fixedNow)
	require.True(t, ok)
	assert.Equal(t, 9, answer)

	_, ok = ParseCookieValue(value, fixedNow.Add(2*time.Minute))
	assert.False(t, ok)

	for _, bad := range []string{"", "9", "x.123", "9.y"} {
		_, ok = ParseCookieValue(bad, fixedNow)
		assert.False(t, ok, bad)
	}
}

func TestIssueChallenge(t *testing.T) {
	s := newTestService(nil, &recordingSender{})
	challenge, value := s.IssueChallenge()

	answer, ok := ParseCookieValue(value, fixedNow.Add(14*time.Minute))
	require.True(t, ok)
	assert.Equal(t, challenge.Answer(), answer)

	_, ok = ParseCookieValue(value, fixedNow.Add(15*time.Minute))
	assert.False(t, ok)
}

func TestAnswerAcceptsNumbersAndStrings(t *testing.T) {
	for body, want := range map[string]Answer{
		`{"mathAnswer": 7}`:     {Value: 7, Valid: true},
		`{"mathAnswer": "12"}`:  {Value: 12, Valid: true},
		`{"mathAnswer": "abc"}`: {},
		`{"mathAnswer": null}`:  {},
		`{}`:                    {},
	} {
		var req Request
		require.NoError(t, json.Unmarshal([]byte(body), &req), body)
		assert.Equal(t, want, req.MathAnswer, body)
	}
}

func TestValidate(t *testing.T) {
	req := Request{Name: "  ", Email: "", Message: ""}
	assert.Equal(t, []string{ErrKeyNameRequired, ErrKeyEmailRequired, ErrKeyMessageRequired}, req.Validate())

	req = Request{Name: "Ada", Email: "not-an-email", Message: "Hi"}
	assert.Equal(t, []string{ErrKeyEmailInvalid}, req.Validate())

	req = Request{Name: " Ada ", Email: "ada@example.com", Message: "Hi"}
	assert.Empty(t, req.Validate())
	assert.Equal(t, "Ada", req.Name)
}

func TestHandleHoneypot(t *testing.T) {
	sender := &recordingSender{}
	req := validRequest(5)
	req.Honeypot = "http://spam.example"

	result := newTestService(nil, sender).Handle(context.Background(), req, "", "10.0.0.1")
	assert.Equal(t, http.StatusOK, result.Status)
	assert.True(t, result.Response.Success)
	assert.Empty(t, sender.sent)
}

func TestHandleMissingChallenge(t *testing.T) {
	result := newTestService(nil, &recordingSender{}).Handle(context.Background(), validRequest(5), "", "10.0.0.1")
	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Equal(t, ErrKeyVerificationExpired, result.Response.Error)
	assert.False(t, result.ClearCookie)
}

func TestHandleWrongAnswer(t *testing.T) {
	sender := &recordingSender{}
	result := newTestService(nil, sender).Handle(context.Background(), validRequest(4), cookieFor(5), "10.0.0.1")
	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Equal(t, ErrKeyInvalidAnswer, result.Response.Error)
	assert.True(t, result.ClearCookie)
	assert.Empty(t, sender.sent)
}

func TestHandleValidationErrors(t *testing.T) {
	req := validRequest(5)
	req.Email = "nope"
	req.Message = ""

	result := newTestService(nil, &recordingSender{}).Handle(context.Background(), req, cookieFor(5), "10.0.0.1")
	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Equal(t, ErrKeyValidation, result.Response.Error)
	assert.Equal(t, []string{ErrKeyEmailInvalid, ErrKeyMessageRequired}, result.Response.Errors)
}

func TestHandleDelivers(t *testing.T) {
	store := &recordingStore{}
	sender := &recordingSender{}

	result := newTestService(store, sender).Handle(context.Background(), validRequest(5), cookieFor(5), "10.0.0.1")
	assert.Equal(t, http.StatusOK, result.Status)
	assert.True(t, result.Response.Success)
	assert.True(t, result.ClearCookie)

	require.Len(t, sender.sent, 1)
	require.Len(t, store.saved, 1)
	msg := sender.sent[0]
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "Hello there", msg.Body)
	assert.Equal(t, "10.0.0.1", msg.ClientAddress)
	assert.Equal(t, fixedNow, msg.CreatedAt)
}

func TestHandleDeliveryFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	result := newTestService(nil, sender).Handle(context.Background(), validRequest(5), cookieFor(5), "10.0.0.1")
	assert.Equal(t, http.StatusInternalServerError, result.Status)
	assert.Equal(t, errDeliveryFailed, result.Response.Error)
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "contact.db"), []byte("pepper"))
	require.NoError(t, err)
	defer store.Close()

	msg := &Message{
		ID:            "0b8f5c2e-1f7e-4c36-9a57-9ac1d7a1c6e1",
		Name:          "Ada",
		Email:         "ada@example.com",
		Body:          "Hello",
		ClientAddress: "10.0.0.1",
		CreatedAt:     fixedNow,
	}
	require.NoError(t, store.Save(context.Background(), msg))

	var (
		name string
		hash []byte
	)
	row := store.db.QueryRow(`SELECT name, client_hash FROM contact_messages WHERE id=?;`, msg.ID)
	require.NoError(t, row.Scan(&name, &hash))
	assert.Equal(t, "Ada", name)
	assert.Len(t, hash, 32)
	assert.Equal(t, store.GetHash("10.0.0.1"), hash)
	assert.NotEqual(t, []byte("10.0.0.1"), hash)

	assert.Error(t, store.Save(context.Background(), msg))
}

func TestSQLiteStoreMigratesOnce(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "contact.db")

	first, err := OpenSQLiteStore(dsn, []byte("pepper"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := OpenSQLiteStore(dsn, []byte("pepper"))
	require.NoError(t, err)
	require.NoError(t, second.Close())
}
