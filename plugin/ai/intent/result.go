package intent

// ActionResult is the outcome of one pipeline run or one provider execution.
// It is either *Success or *Failure.
type ActionResult interface {
	// OK reports whether the result is a success.
	OK() bool
	// Message returns the human-readable summary.
	Message() string

	isActionResult()
}

// Success is a completed action.
// ShouldPaste is the sole signal that ResultText must be delivered to the input focus.
type Success struct {
	Msg         string            `json:"message"`
	ResultText  string            `json:"result_text,omitempty"`
	ShouldPaste bool              `json:"should_paste"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Failure is an action that did not complete.
type Failure struct {
	Msg         string `json:"message"`
	Err         error  `json:"-"`
	Recoverable bool   `json:"recoverable"`
	Suggestion  string `json:"suggestion,omitempty"`
}

func (*Success) isActionResult() {}
func (*Failure) isActionResult() {}

// OK implements ActionResult.
func (*Success) OK() bool { return true }

// OK implements ActionResult.
func (*Failure) OK() bool { return false }

// Message implements ActionResult.
func (s *Success) Message() string { return s.Msg }

// Message implements ActionResult.
func (f *Failure) Message() string { return f.Msg }

// HasResultText reports whether the success carries output text.
func (s *Success) HasResultText() bool { return s.ResultText != "" }

// Unwrap returns the underlying error, if any.
func (f *Failure) Unwrap() error { return f.Err }

// Succeeded builds a success with only a message.
func Succeeded(msg string) *Success {
	return &Success{Msg: msg}
}

// Failed builds a non-recoverable failure.
func Failed(msg string, err error) *Failure {
	return &Failure{Msg: msg, Err: err}
}

// RecoverableFailure builds a recoverable failure with a user-facing suggestion.
func RecoverableFailure(msg string, err error, suggestion string) *Failure {
	return &Failure{Msg: msg, Err: err, Recoverable: true, Suggestion: suggestion}
}

// ResultText returns the output text of a successful result, or "" otherwise.
func ResultText(r ActionResult) string {
	if s, ok := r.(*Success); ok && s.HasResultText() {
		return s.ResultText
	}
	return ""
}

// ResultView is the flattened wire form of an ActionResult.
type ResultView struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	ResultText  string            `json:"result_text,omitempty"`
	ShouldPaste bool              `json:"should_paste"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Recoverable bool              `json:"recoverable,omitempty"`
	Suggestion  string            `json:"suggestion,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// View flattens r. A nil result yields nil.
func View(r ActionResult) *ResultView {
	switch v := r.(type) {
	case *Success:
		return &ResultView{
			Success:     true,
			Message:     v.Msg,
			ResultText:  v.ResultText,
			ShouldPaste: v.ShouldPaste,
			Metadata:    v.Metadata,
		}
	case *Failure:
		view := &ResultView{
			Message:     v.Msg,
			Recoverable: v.Recoverable,
			Suggestion:  v.Suggestion,
		}
		if v.Err != nil {
			view.Error = v.Err.Error()
		}
		return view
	default:
		return nil
	}
}
