package protocol

import "encoding/json"

// Authentication wire discriminants.
const (
	TypeAuthInitialization = "auth_initialization"
	TypeAuthStartMethod    = "auth_start_method"
	TypeAuthChallenge      = "auth_challenge"
	TypeAuthVerification   = "auth_verification"
	TypeAuthInfo           = "auth_info"
	TypeAuthError          = "auth_error"
	TypeAuthFinished       = "auth_finished"

	TypeAuthInitializationResponse = "auth_initialization_response"
	TypeAuthChallengeResponse      = "auth_challenge_response"
	TypeAuthVerificationResponse   = "auth_verification_response"
)

// AuthInitialization announces the methods the authenticator is willing to
// negotiate, in the authenticator's preferred order.
type AuthInitialization struct {
	Methods []string `json:"methods"`
}

func (AuthInitialization) MessageType() string { return TypeAuthInitialization }

// AuthStartMethod marks the beginning of a specific method's turn.
type AuthStartMethod struct {
	Method string `json:"method"`
}

func (AuthStartMethod) MessageType() string { return TypeAuthStartMethod }

// Question is a single prompt within a Challenge. Label defaults to Text
// when the caller does not supply one (see NewQuestion).
type Question struct {
	Label   string            `json:"label"`
	Text    string            `json:"text"`
	Options map[string]string `json:"options"`
}

// NewQuestion builds a Question with no options, using text for both the
// label and the display text, matching the original's Question::new.
func NewQuestion(text string) Question {
	return Question{Label: text, Text: text, Options: map[string]string{}}
}

// AuthChallenge asks the responder to answer an ordered series of
// Questions. AuthChallengeResponse.Answers must have the same length.
type AuthChallenge struct {
	Questions []Question        `json:"questions"`
	Options   map[string]string `json:"options"`
}

func (AuthChallenge) MessageType() string { return TypeAuthChallenge }

// VerificationKind identifies what is being verified. Unknown is the
// decode fallback for any discriminant this peer does not recognize: it is
// the only variant in the whole protocol allowed to behave this way.
type VerificationKind string

const (
	VerificationHost    VerificationKind = "host"
	VerificationUnknown VerificationKind = "unknown"
)

// AuthVerification asks the responder to verify some piece of information
// (e.g. a host key) out of band.
type AuthVerification struct {
	Kind VerificationKind `json:"kind"`
	Text string            `json:"text"`
}

func (AuthVerification) MessageType() string { return TypeAuthVerification }

// UnmarshalJSON normalizes any kind this peer does not recognize to
// VerificationUnknown rather than failing the decode, the one exception to
// the protocol's otherwise-strict unknown-variant rejection.
func (v *AuthVerification) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind VerificationKind `json:"kind"`
		Text string           `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case VerificationHost:
	default:
		raw.Kind = VerificationUnknown
	}
	v.Kind = raw.Kind
	v.Text = raw.Text
	return nil
}

// AuthInfo reports informational text during authentication. It expects no
// response (fire-and-forget, but ordered relative to other auth messages).
type AuthInfo struct {
	Text string `json:"text"`
}

func (AuthInfo) MessageType() string { return TypeAuthInfo }

// ErrorKind distinguishes terminal authentication failures from ones the
// responder may retry.
type ErrorKind string

const (
	ErrorKindFatal ErrorKind = "fatal"
	ErrorKindError ErrorKind = "error"
)

// IsFatal reports whether this error kind terminates the session.
func (k ErrorKind) IsFatal() bool { return k == ErrorKindFatal }

// AuthError reports a failure during authentication. A Fatal error is the
// last envelope the peer may legitimately observe before the transport
// closes.
type AuthError struct {
	Kind ErrorKind `json:"kind"`
	Text string    `json:"text"`
}

func (AuthError) MessageType() string { return TypeAuthError }

func (e AuthError) Error() string { return string(e.Kind) + ": " + e.Text }

// IsFatal reports whether this error is unrecoverable.
func (e AuthError) IsFatal() bool { return e.Kind.IsFatal() }

// AuthFinished marks successful completion of authentication. Exactly one
// is ever sent per session.
type AuthFinished struct{}

func (AuthFinished) MessageType() string { return TypeAuthFinished }

// AuthInitializationResponse selects which of the offered methods the
// responder wants to pursue, and in what order, honoring its own
// preference while remaining a subset of what was offered.
type AuthInitializationResponse struct {
	Methods []string `json:"methods"`
}

func (AuthInitializationResponse) MessageType() string { return TypeAuthInitializationResponse }

// AuthChallengeResponse answers a Challenge. Answers must align 1:1 with
// the Questions that were asked.
type AuthChallengeResponse struct {
	Answers []string `json:"answers"`
}

func (AuthChallengeResponse) MessageType() string { return TypeAuthChallengeResponse }

// AuthVerificationResponse answers a Verification request.
type AuthVerificationResponse struct {
	Valid bool `json:"valid"`
}

func (AuthVerificationResponse) MessageType() string { return TypeAuthVerificationResponse }
