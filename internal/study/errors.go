package study

// ValidationError marks malformed input. It is surfaced immediately and
// never retried.
type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}
