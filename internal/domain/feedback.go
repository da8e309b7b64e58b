package domain

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// MaxCommentLength is the longest feedback comment the backend accepts, in
// characters.
const MaxCommentLength = 500

// Feedback categories accepted by the backend.
var FeedbackCategories = []string{"infraestructura", "inventario", "servicio", "limpieza", "personal", "otro"}

// Urgency levels accepted by the backend.
var UrgencyLevels = []string{"baja", "media", "alta", "critica"}

// Feedback is a collaborator's report about a store.
type Feedback struct {
	Collaborator string `json:"colaborador"`
	Comment      string `json:"comentario"`
	Category     string `json:"categoria"`
	Urgency      string `json:"urgencia"`
}

// Validate returns an error wrapping ErrInvalidFeedback when the payload
// would be rejected by the backend.
func (f Feedback) Validate() error {
	switch {
	case strings.TrimSpace(f.Collaborator) == "":
		return fmt.Errorf("%w: colaborador is required", ErrInvalidFeedback)
	case strings.TrimSpace(f.Comment) == "":
		return fmt.Errorf("%w: comentario is required", ErrInvalidFeedback)
	case utf8.RuneCountInString(f.Comment) > MaxCommentLength:
		return fmt.Errorf("%w: comentario exceeds %d characters", ErrInvalidFeedback, MaxCommentLength)
	case !slices.Contains(FeedbackCategories, f.Category):
		return fmt.Errorf("%w: unknown categoria %q", ErrInvalidFeedback, f.Category)
	case !slices.Contains(UrgencyLevels, f.Urgency):
		return fmt.Errorf("%w: unknown urgencia %q", ErrInvalidFeedback, f.Urgency)
	}
	return nil
}

// FeedbackInfo is the stored feedback echoed back by the backend.
type FeedbackInfo struct {
	ID           string `json:"_id"`
	StoreID      int64  `json:"tienda_id"`
	Collaborator string `json:"colaborador"`
	Date         string `json:"fecha"`
	Comment      string `json:"comentario"`
	Category     string `json:"categoria"`
	Urgency      string `json:"urgencia"`
	Resolved     bool   `json:"resuelto"`
}

// AnalysisInfo describes the analysis the backend ran on new feedback.
type AnalysisInfo struct {
	Generated bool   `json:"generated"`
	Priority  string `json:"priority,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// FeedbackReceipt is the backend's answer to a feedback submission.
type FeedbackReceipt struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message,omitempty"`
	Feedback *FeedbackInfo `json:"feedback,omitempty"`
	Analysis *AnalysisInfo `json:"analysis,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// StrategyFeedbackReceipt names the single decode attempt for submission
// responses.
const StrategyFeedbackReceipt = "feedback-receipt"

var feedbackReceiptStrategies = []Strategy[FeedbackReceipt]{
	{Name: StrategyFeedbackReceipt, Decode: decodeFeedbackReceipt},
}

// DecodeFeedbackReceipt decodes a submission response. A success:false body
// is a *DecodeError of kind unsuccessful.
func DecodeFeedbackReceipt(body []byte) (FeedbackReceipt, error) {
	r, _, err := RunStrategies(body, feedbackReceiptStrategies)
	return r, err
}

func decodeFeedbackReceipt(body []byte) (FeedbackReceipt, *DecodeFailure) {
	var r FeedbackReceipt
	if f := decodeObject(body, []string{"success"}, &r); f != nil {
		return FeedbackReceipt{}, f
	}
	if !r.Success {
		return FeedbackReceipt{}, unsuccessful(&r.Error)
	}
	return r, nil
}

// DecodeHealth reports whether a health body carries success: true.
func DecodeHealth(body []byte) bool {
	v := gjson.GetBytes(body, "success")
	return v.Type == gjson.True
}
