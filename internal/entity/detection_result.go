package entity

import (
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DetectStatusSuccess = "success"

// BBox is x1, y1, x2, y2 in image pixel space.
type BBox [4]float64

func (b BBox) X1() float64 { return b[0] }
func (b BBox) Y1() float64 { return b[1] }
func (b BBox) X2() float64 { return b[2] }
func (b BBox) Y2() float64 { return b[3] }

func (b BBox) Finite() bool {
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Scale multiplies x coordinates by sx and y coordinates by sy.
func (b BBox) Scale(sx, sy float64) BBox {
	return BBox{b[0] * sx, b[1] * sy, b[2] * sx, b[3] * sy}
}

func (b BBox) MarshalJSON() ([]byte, error) {
	out := make([]interface{}, len(b))
	for i, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = nil
			continue
		}
		out[i] = v
	}
	return json.Marshal(out)
}

// Label is the detector class id. Numeric ids are printed in their shortest
// form, so 1.0 and 1 are the same class.
type Label string

// ResultModel is one detected object as returned by the detector.
type ResultModel struct {
	BBox  BBox    `json:"bbox"`
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

type rawResult struct {
	BBox  []jsoniter.RawMessage `json:"bbox"`
	Label jsoniter.RawMessage   `json:"label"`
	Score jsoniter.RawMessage   `json:"score"`
}

// UnmarshalJSON never rejects a malformed record: missing or non-numeric
// coordinates and scores decode to NaN and surface later as rendering
// artifacts. A record that is not an object at all keeps its place in the
// list with no label.
func (r *ResultModel) UnmarshalJSON(data []byte) error {
	var raw rawResult
	if err := json.Unmarshal(data, &raw); err != nil {
		var loose map[string]jsoniter.RawMessage
		if err := json.Unmarshal(data, &loose); err == nil {
			raw = rawResult{Label: loose["label"], Score: loose["score"]}
		} else {
			raw = rawResult{}
		}
	}

	for i := range r.BBox {
		if i < len(raw.BBox) {
			r.BBox[i] = parseNumber(raw.BBox[i])
		} else {
			r.BBox[i] = math.NaN()
		}
	}
	r.Label = parseLabel(raw.Label)
	r.Score = parseNumber(raw.Score)

	return nil
}

func (r ResultModel) MarshalJSON() ([]byte, error) {
	var score interface{} = r.Score
	if math.IsNaN(r.Score) || math.IsInf(r.Score, 0) {
		score = nil
	}
	return json.Marshal(struct {
		BBox  BBox        `json:"bbox"`
		Label Label       `json:"label"`
		Score interface{} `json:"score"`
	}{r.BBox, r.Label, score})
}

func parseNumber(raw jsoniter.RawMessage) float64 {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return math.NaN()
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseLabel(raw jsoniter.RawMessage) Label {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return Label(str)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return Label(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return Label(s)
}

// DetectResponse is the body of POST /api/detect.
type DetectResponse struct {
	Status  string        `json:"status"`
	Results []ResultModel `json:"results,omitempty"`
	Message string        `json:"message,omitempty"`
}

func (r *DetectResponse) Succeeded() bool {
	return r != nil && r.Status == DetectStatusSuccess
}

// Tagged ties a payload to the submission generation that produced it.
type Tagged[T any] struct {
	Generation uint64 `json:"generation"`
	Payload    T      `json:"payload"`
}

func Tag[T any](generation uint64, payload T) Tagged[T] {
	return Tagged[T]{Generation: generation, Payload: payload}
}
