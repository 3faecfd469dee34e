package entity

import (
	"math"
	"testing"
)

func TestDetectResponseDecodesSuccess(t *testing.T) {
	body := `{"status":"success","results":[{"bbox":[10,10,50,50],"label":"A","score":0.5},{"bbox":[1.5,2,3,4],"label":7,"score":0.873}]}`

	var resp DetectResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Succeeded() {
		t.Fatal("expected success")
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}

	first := resp.Results[0]
	if first.BBox != (BBox{10, 10, 50, 50}) || first.Label != "A" || first.Score != 0.5 {
		t.Fatalf("unexpected first result %+v", first)
	}
	if resp.Results[1].Label != "7" {
		t.Fatalf("numeric label should keep its spelling, got %q", resp.Results[1].Label)
	}
}

func TestMalformedRecordsBecomeNaN(t *testing.T) {
	body := `{"status":"success","results":[{"label":"A","score":"high"},{"bbox":[1,"x",3],"label":null}]}`

	var resp DetectResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("malformed records must not fail decoding: %v", err)
	}

	missing := resp.Results[0]
	if missing.BBox.Finite() {
		t.Fatal("missing bbox must decode to NaN geometry")
	}
	if !math.IsNaN(missing.Score) {
		t.Fatalf("non-numeric score must be NaN, got %v", missing.Score)
	}

	partial := resp.Results[1]
	if partial.BBox[0] != 1 || !math.IsNaN(partial.BBox[1]) || partial.BBox[2] != 3 || !math.IsNaN(partial.BBox[3]) {
		t.Fatalf("unexpected partial bbox %v", partial.BBox)
	}
	if partial.Label != "" {
		t.Fatalf("null label should be empty, got %q", partial.Label)
	}
}

func TestNonArrayBBoxFallsBackToLooseDecode(t *testing.T) {
	var r ResultModel
	if err := json.Unmarshal([]byte(`{"bbox":"oops","label":"B","score":0.25}`), &r); err != nil {
		t.Fatal(err)
	}
	if r.BBox.Finite() || r.Label != "B" || r.Score != 0.25 {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestNonObjectRecordsKeepTheirPlace(t *testing.T) {
	body := `{"status":"success","results":[{"bbox":[1,2,3,4],"label":"A","score":0.5},"x",5,[1,2]]}`

	var resp DetectResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("non-object records must not fail decoding: %v", err)
	}
	if len(resp.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(resp.Results))
	}
	if first := resp.Results[0]; first.BBox != (BBox{1, 2, 3, 4}) || first.Label != "A" {
		t.Fatalf("valid record must survive its neighbours, got %+v", first)
	}
	for i, r := range resp.Results[1:] {
		if r.BBox.Finite() || !math.IsNaN(r.Score) || r.Label != "" {
			t.Fatalf("record %d: expected NaN geometry and no label, got %+v", i+1, r)
		}
	}
}

func TestNumericLabelsUseShortestForm(t *testing.T) {
	tests := []struct {
		raw  string
		want Label
	}{
		{`1.0`, "1"},
		{`7`, "7"},
		{`2.50`, "2.5"},
		{`-3`, "-3"},
		{`"1.0"`, "1.0"},
		{`true`, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var r ResultModel
			if err := json.Unmarshal([]byte(`{"bbox":[0,0,1,1],"label":`+tt.raw+`,"score":1}`), &r); err != nil {
				t.Fatal(err)
			}
			if r.Label != tt.want {
				t.Fatalf("got %q, want %q", r.Label, tt.want)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	var resp DetectResponse
	if err := json.Unmarshal([]byte(`{"status":"error","message":"bad image"}`), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Succeeded() || resp.Message != "bad image" || len(resp.Results) != 0 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestMarshalNaNAsNull(t *testing.T) {
	r := ResultModel{BBox: BBox{math.NaN(), 1, 2, 3}, Label: "A", Score: math.NaN()}
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"bbox":[null,1,2,3],"label":"A","score":null}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestBBoxScale(t *testing.T) {
	got := BBox{10, 20, 30, 40}.Scale(0.5, 2)
	if got != (BBox{5, 40, 15, 80}) {
		t.Fatalf("unexpected scaled box %v", got)
	}
}
