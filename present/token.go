package present

// Token is the completion token of the most recently submitted frame.
// The zero Token holds no pending work.
type Token struct {
	index uint64
}

// NoToken returns a Token with no pending work.
func NoToken() Token {
	return Token{}
}

// PendingToken returns a Token for the submission with the given index.
// Index zero is reserved for "no work" and yields NoToken.
func PendingToken(index uint64) Token {
	return Token{index: index}
}

// IsNone reports whether the token holds no pending work.
func (t Token) IsNone() bool {
	return t.index == 0
}

// Index returns the submission index, or zero for NoToken.
func (t Token) Index() uint64 {
	return t.index
}

// Done reports whether the work behind t has finished, given the highest
// completed submission index. NoToken is always done.
func (t Token) Done(completed uint64) bool {
	return completed >= t.index
}
