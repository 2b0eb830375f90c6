package plagiarism

import "context"

// Options tunes an Engine.
type Options struct {
	// MaxShingle caps the k-gram width. Values below 1 use DefaultShingleSize.
	MaxShingle int
	// OffsetMode selects how token offsets are recovered.
	OffsetMode OffsetMode
}

// DefaultOptions returns the options used by Compare.
func DefaultOptions() Options {
	return Options{
		MaxShingle: DefaultShingleSize,
		OffsetMode: OffsetExact,
	}
}

// Result is the outcome of comparing two documents. Doc1Matches and
// Doc2Matches are sorted by Start and never overlap.
type Result struct {
	Similarity   float64    `json:"similarity" bson:"similarity"`
	Doc1Matches  []Interval `json:"doc1Matches" bson:"doc1Matches"`
	Doc2Matches  []Interval `json:"doc2Matches" bson:"doc2Matches"`
	Doc1Text     string     `json:"doc1Text" bson:"doc1Text"`
	Doc2Text     string     `json:"doc2Text" bson:"doc2Text"`
	Doc1Coverage float64    `json:"doc1Coverage" bson:"doc1Coverage"`
	Doc2Coverage float64    `json:"doc2Coverage" bson:"doc2Coverage"`
	ShingleSize  int        `json:"shingleSize" bson:"shingleSize"`
	RawMatches   int        `json:"rawMatches" bson:"rawMatches"`
	Verdict      string     `json:"verdict" bson:"verdict"`
}

// Engine compares documents. It holds only configuration and is safe for
// concurrent use.
type Engine struct {
	opts Options
}

// NewEngine returns an engine using opts, filling unset fields with defaults.
func NewEngine(opts Options) *Engine {
	if opts.MaxShingle < 1 {
		opts.MaxShingle = DefaultShingleSize
	}
	if opts.OffsetMode == "" {
		opts.OffsetMode = OffsetExact
	}
	return &Engine{opts: opts}
}

// Options returns the engine configuration.
func (e *Engine) Options() Options {
	return e.opts
}

var defaultEngine = NewEngine(DefaultOptions())

// Compare runs the default engine over two texts.
func Compare(text1, text2 string) *Result {
	return defaultEngine.Compare(text1, text2)
}

// Compare reports which spans of text1 and text2 recur in the other document
// and how much of each document they cover.
func (e *Engine) Compare(text1, text2 string) *Result {
	result, _ := e.CompareContext(context.Background(), text1, text2)
	return result
}

// CompareContext is Compare with cancellation. It returns ctx.Err() if ctx ends
// while shingles are being matched.
func (e *Engine) CompareContext(ctx context.Context, text1, text2 string) (*Result, error) {
	tokens1 := TokenizeWith(text1, e.opts.OffsetMode)
	tokens2 := TokenizeWith(text2, e.opts.OffsetMode)

	k := ShingleWidth(e.opts.MaxShingle, len(tokens1), len(tokens2))
	if k < 1 {
		return &Result{
			Similarity:  0,
			Doc1Matches: []Interval{},
			Doc2Matches: []Interval{},
			Doc1Text:    text1,
			Doc2Text:    text2,
			Verdict:     Verdict(0),
		}, nil
	}

	spans, err := MatchSpans(ctx, tokens1, tokens2, k)
	if err != nil {
		return nil, err
	}
	merged1 := MergeIntervals(spans.Doc1)
	merged2 := MergeIntervals(spans.Doc2)

	similarity := Score(merged1, text1, merged2, text2)

	return &Result{
		Similarity:   similarity,
		Doc1Matches:  merged1,
		Doc2Matches:  merged2,
		Doc1Text:     text1,
		Doc2Text:     text2,
		Doc1Coverage: round2(Coverage(merged1, text1)),
		Doc2Coverage: round2(Coverage(merged2, text2)),
		ShingleSize:  k,
		RawMatches:   spans.Pairs,
		Verdict:      Verdict(similarity),
	}, nil
}

// Doc1HTML renders the first document with its matched spans highlighted.
func (r *Result) Doc1HTML() string {
	return Render(r.Doc1Text, r.Doc1Matches)
}

// Doc2HTML renders the second document with its matched spans highlighted.
func (r *Result) Doc2HTML() string {
	return Render(r.Doc2Text, r.Doc2Matches)
}
