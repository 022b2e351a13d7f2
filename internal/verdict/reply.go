package verdict

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// judgeReply is the strict JSON contract of a judge call
type judgeReply struct {
	Verdict     string      `json:"verdict"`
	Confidence  confidence  `json:"confidence"`
	Explanation string      `json:"explanation"`
	Citations   []reference `json:"citations"`
}

func checkReply(r judgeReply) error {
	if strings.TrimSpace(r.Verdict) == "" {
		return errors.New(`missing "verdict"`)
	}
	return nil
}

// confidence accepts 0.8, "0.8", 80 and "80%". Values between 1 and 2
// are overshoots on the 0-1 scale and are left for clamping.
type confidence float64

func (c *confidence) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var v float64
	percent := false
	switch t := raw.(type) {
	case float64:
		v = t
	case string:
		s := strings.TrimSpace(t)
		if strings.HasSuffix(s, "%") {
			percent = true
			s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.New("confidence is not a number")
		}
		v = parsed
	case nil:
		v = 0
	default:
		return errors.New("confidence is not a number")
	}

	if percent || (v >= 2 && v <= 100) {
		v /= 100
	}
	*c = confidence(v)
	return nil
}

// reference is a 1-based evidence index: 2, "2", "[2]" or "Source 2".
// Anything without a number becomes 0, which is never a valid index.
type reference int

var digitsRe = regexp.MustCompile(`\d+`)

func (r *reference) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch t := raw.(type) {
	case float64:
		*r = reference(int(t))
	case string:
		if m := digitsRe.FindString(t); m != "" {
			n, _ := strconv.Atoi(m)
			*r = reference(n)
		}
	}
	return nil
}
