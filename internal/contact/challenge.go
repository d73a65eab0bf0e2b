package contact

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const (
	CookieName          = "math_challenge"
	DefaultChallengeTTL = 15 * time.Minute
)

// Challenge is the pair of numbers shown to the visitor. Only their sum is
// kept, inside the challenge cookie.
type Challenge struct {
	Num1 int `json:"num1"`
	Num2 int `json:"num2"`
}

func NewChallenge() Challenge {
	return Challenge{Num1: rand.IntN(9) + 1, Num2: rand.IntN(9) + 1}
}

func (c Challenge) Answer() int {
	return c.Num1 + c.Num2
}

// CookieValue encodes the expected answer with its expiry as "answer.unix".
func (c Challenge) CookieValue(expires time.Time) string {
	return fmt.Sprintf("%d.%d", c.Answer(), expires.Unix())
}

// ParseCookieValue returns the expected answer stored in a challenge cookie,
// or false when the value is malformed or expired at now.
func ParseCookieValue(value string, now time.Time) (int, bool) {
	answerPart, expiresPart, found := strings.Cut(value, ".")
	if !found {
		return 0, false
	}
	answer, err := strconv.Atoi(answerPart)
	if err != nil {
		return 0, false
	}
	expires, err := strconv.ParseInt(expiresPart, 10, 64)
	if err != nil || !now.Before(time.Unix(expires, 0)) {
		return 0, false
	}
	return answer, true
}
