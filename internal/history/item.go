package history

import (
	"strconv"
	"time"

	"github.com/unkn0wn-root/reqdeck/internal/request"
)

// Item is an immutable snapshot of one dispatched request. URL is what went
// on the wire; OriginalURL is the template as typed.
type Item struct {
	ID          string         `json:"id"`
	ExecutedAt  time.Time      `json:"executedAt"`
	Session     string         `json:"session,omitempty"`
	Method      request.Method `json:"method"`
	URL         string         `json:"url"`
	OriginalURL string         `json:"originalUrl"`
	Headers     []request.Pair `json:"headers,omitempty"`
	Query       []request.Pair `json:"query,omitempty"`
	Body        string         `json:"body,omitempty"`
	StatusCode  int            `json:"statusCode,omitempty"`
	Duration    time.Duration  `json:"duration,omitempty"`
}

func (it Item) Clone() Item {
	out := it
	out.Headers = append([]request.Pair(nil), it.Headers...)
	out.Query = append([]request.Pair(nil), it.Query...)
	return out
}

// Apply loads the item into def. The template URL is restored, while
// headers and params keep the resolved values that were sent.
func (it Item) Apply(def *request.Definition) {
	if def == nil {
		return
	}
	def.Method = it.Method
	def.URL = it.OriginalURL
	def.Body = it.Body
	def.Headers = request.RowsFromPairs(it.Headers)
	def.Query = request.RowsFromPairs(it.Query)
}

// Title is the one-line label used by list views.
func (it Item) Title() string {
	return it.Method.String() + " " + it.URL
}

func (it Item) seq() int64 {
	n, err := strconv.ParseInt(it.ID, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
