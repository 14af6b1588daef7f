package protocol

import (
	"encoding/json"
	"fmt"
)

// rawEnvelope mirrors Envelope's wire shape before the payload has been
// resolved to a concrete Message type.
type rawEnvelope struct {
	Id       string          `json:"id"`
	OriginId string          `json:"origin_id,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type rawPayload struct {
	Type string `json:"type"`
}

// messageFactories maps each wire discriminant to a constructor producing
// a fresh zero value of the matching Go type, used to decode the `payload`
// field of an Envelope once its `type` tag has been read.
var messageFactories = map[string]func() Message{
	TypeAuthInitialization:         func() Message { return &AuthInitialization{} },
	TypeAuthStartMethod:            func() Message { return &AuthStartMethod{} },
	TypeAuthChallenge:              func() Message { return &AuthChallenge{} },
	TypeAuthVerification:           func() Message { return &AuthVerification{} },
	TypeAuthInfo:                   func() Message { return &AuthInfo{} },
	TypeAuthError:                  func() Message { return &AuthError{} },
	TypeAuthFinished:               func() Message { return &AuthFinished{} },
	TypeAuthInitializationResponse: func() Message { return &AuthInitializationResponse{} },
	TypeAuthChallengeResponse:      func() Message { return &AuthChallengeResponse{} },
	TypeAuthVerificationResponse:   func() Message { return &AuthVerificationResponse{} },

	TypeReadFile:      func() Message { return &ReadFileRequest{} },
	TypeReadFileText:  func() Message { return &ReadFileTextRequest{} },
	TypeWriteFile:     func() Message { return &WriteFileRequest{} },
	TypeWriteFileText: func() Message { return &WriteFileTextRequest{} },
	TypeReadDir:       func() Message { return &ReadDirRequest{} },
	TypeCreateDir:     func() Message { return &CreateDirRequest{} },
	TypeRemove:        func() Message { return &RemoveRequest{} },
	TypeRename:        func() Message { return &RenameRequest{} },
	TypeCopy:          func() Message { return &CopyRequest{} },
	TypeExists:        func() Message { return &ExistsRequest{} },
	TypeMetadata:      func() Message { return &MetadataRequest{} },
	TypeWatch:         func() Message { return &WatchRequest{} },
	TypeUnwatch:       func() Message { return &UnwatchRequest{} },
	TypeSearch:        func() Message { return &SearchRequest{} },
	TypeSearchCancel:  func() Message { return &SearchCancelRequest{} },
	TypeProcSpawn:     func() Message { return &ProcSpawnRequest{} },
	TypeProcStdin:     func() Message { return &ProcStdinRequest{} },
	TypeProcResize:    func() Message { return &ProcResizeRequest{} },
	TypeProcKill:      func() Message { return &ProcKillRequest{} },
	TypeSystemInfo:    func() Message { return &SystemInfoRequest{} },
	TypeCapabilities:  func() Message { return &CapabilitiesRequest{} },

	TypeOk:            func() Message { return &OkResponse{} },
	TypeError:         func() Message { return &ErrorResponse{} },
	TypeBlob:          func() Message { return &BlobResponse{} },
	TypeText:          func() Message { return &TextResponse{} },
	TypeDirEntries:    func() Message { return &DirEntriesResponse{} },
	TypeChanged:       func() Message { return &ChangedResponse{} },
	TypeSearchStarted: func() Message { return &SearchStartedResponse{} },
	TypeSearchResults: func() Message { return &SearchResultsResponse{} },
	TypeSearchDone:    func() Message { return &SearchDoneResponse{} },
	TypeProcSpawned:   func() Message { return &ProcSpawnedResponse{} },
	TypeProcStdout:    func() Message { return &ProcStdoutResponse{} },
	TypeProcStderr:    func() Message { return &ProcStderrResponse{} },
	TypeProcDone:      func() Message { return &ProcDoneResponse{} },
}

// sharedResponseFactories decodes responses whose tag a request also uses.
var sharedResponseFactories = map[string]func() Message{
	TypeMetadataResp:     func() Message { return &MetadataResponse{} },
	TypeExistsResp:       func() Message { return &ExistsResponse{} },
	TypeSystemInfoResp:   func() Message { return &SystemInfoResponse{} },
	TypeCapabilitiesResp: func() Message { return &CapabilitiesResponse{} },
}

// UnknownVariantError is returned when an Envelope's payload carries a
// `type` discriminant this peer does not recognize. Only VerificationKind
// is allowed an "other-fallback"; everywhere else
// (including here, at the envelope level) an unrecognized discriminant is
// a decode error distinguishable from a merely malformed payload.
type UnknownVariantError struct {
	Type string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown message variant %q", e.Type)
}

// MarshalJSON renders the envelope with its payload's `type` discriminant
// inlined.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("envelope %s has no payload", e.Id)
	}
	body, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &merged); err != nil {
		return nil, err
	}
	typeJSON, err := json.Marshal(e.Payload.MessageType())
	if err != nil {
		return nil, err
	}
	merged["type"] = typeJSON

	out := struct {
		Id       string                     `json:"id"`
		OriginId string                     `json:"origin_id,omitempty"`
		Payload  map[string]json.RawMessage `json:"payload"`
	}{e.Id, e.OriginId, merged}
	return json.Marshal(out)
}

// UnmarshalJSON resolves the envelope's payload to a concrete Message
// implementation based on its `type` discriminant, failing with
// *UnknownVariantError for a discriminant it does not know. A tag shared by
// a request and its response (metadata, exists, system_info, capabilities)
// decodes as the response when the envelope carries an OriginId, and as the
// request otherwise.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var tag rawPayload
	if err := json.Unmarshal(raw.Payload, &tag); err != nil {
		return err
	}

	factory, ok := messageFactories[tag.Type]
	if resp, shared := sharedResponseFactories[tag.Type]; shared && raw.OriginId != "" {
		factory, ok = resp, true
	}
	if !ok {
		return &UnknownVariantError{Type: tag.Type}
	}
	msg := factory()
	if err := json.Unmarshal(raw.Payload, msg); err != nil {
		return err
	}

	e.Id = raw.Id
	e.OriginId = raw.OriginId
	e.Payload = derefMessage(msg)
	return nil
}

// derefMessage unwraps the pointer receiver used for unmarshaling so that
// Envelope.Payload holds the same concrete value shape callers construct
// by hand (value, not pointer), matching how the rest of the codebase
// constructs messages as plain struct literals.
func derefMessage(msg Message) Message {
	switch v := msg.(type) {
	case *AuthInitialization:
		return *v
	case *AuthStartMethod:
		return *v
	case *AuthChallenge:
		return *v
	case *AuthVerification:
		return *v
	case *AuthInfo:
		return *v
	case *AuthError:
		return *v
	case *AuthFinished:
		return *v
	case *AuthInitializationResponse:
		return *v
	case *AuthChallengeResponse:
		return *v
	case *AuthVerificationResponse:
		return *v
	case *ReadFileRequest:
		return *v
	case *ReadFileTextRequest:
		return *v
	case *WriteFileRequest:
		return *v
	case *WriteFileTextRequest:
		return *v
	case *ReadDirRequest:
		return *v
	case *CreateDirRequest:
		return *v
	case *RemoveRequest:
		return *v
	case *RenameRequest:
		return *v
	case *CopyRequest:
		return *v
	case *ExistsRequest:
		return *v
	case *MetadataRequest:
		return *v
	case *WatchRequest:
		return *v
	case *UnwatchRequest:
		return *v
	case *SearchRequest:
		return *v
	case *SearchCancelRequest:
		return *v
	case *ProcSpawnRequest:
		return *v
	case *ProcStdinRequest:
		return *v
	case *ProcResizeRequest:
		return *v
	case *ProcKillRequest:
		return *v
	case *SystemInfoRequest:
		return *v
	case *CapabilitiesRequest:
		return *v
	case *OkResponse:
		return *v
	case *ErrorResponse:
		return *v
	case *BlobResponse:
		return *v
	case *TextResponse:
		return *v
	case *DirEntriesResponse:
		return *v
	case *MetadataResponse:
		return *v
	case *ExistsResponse:
		return *v
	case *ChangedResponse:
		return *v
	case *SearchStartedResponse:
		return *v
	case *SearchResultsResponse:
		return *v
	case *SearchDoneResponse:
		return *v
	case *ProcSpawnedResponse:
		return *v
	case *ProcStdoutResponse:
		return *v
	case *ProcStderrResponse:
		return *v
	case *ProcDoneResponse:
		return *v
	case *SystemInfoResponse:
		return *v
	case *CapabilitiesResponse:
		return *v
	default:
		return msg
	}
}
