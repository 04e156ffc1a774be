package metrics

// Segment is one labelled span of audio. Type is "SPEECH" for voiced
// segments; every other label counts as non-speech.
type Segment struct {
	Type      string     `json:"type"`
	TimeRange [2]float64 `json:"time-range"`
}

// IsSpeech reports whether the segment carries the speech label.
func (s Segment) IsSpeech() bool {
	return s.Type == "SPEECH"
}

// Duration is the span length in seconds.
func (s Segment) Duration() float64 {
	return s.TimeRange[1] - s.TimeRange[0]
}

// BargeInScores summarizes how well predicted speech onsets line up with
// true speech segments.
type BargeInScores struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	Captures  int     `json:"captures"`
	Predicted int     `json:"predicted_speech"`
	Truth     int     `json:"truth_speech"`
}

// IsCaptured reports whether the predicted segment's onset falls within an
// acceptable window of some true segment: either it starts inside the true
// segment no later than error+cutoff after its onset, or it anticipates the
// true onset by less than error.
func IsCaptured(pred Segment, truth []Segment, errorTol, cutoff float64) bool {
	predStart := pred.TimeRange[0]
	for _, seg := range truth {
		late := pred.TimeRange[0] < seg.TimeRange[1] &&
			predStart-seg.TimeRange[0] > 0 && predStart-seg.TimeRange[0] < errorTol+cutoff
		early := seg.TimeRange[0]-predStart > 0 && seg.TimeRange[0]-predStart < errorTol
		if late || early {
			return true
		}
	}
	return false
}

// BargeInUtterance pairs the true and predicted segments of one audio file.
type BargeInUtterance struct {
	Truth     []Segment
	Predicted []Segment
}

// BargeInReport scores speech capture over a set of utterances. True speech
// segments shorter than the error tolerance are discarded as noise before
// matching. Precision and recall are 0 when their denominators are.
func BargeInReport(utterances []BargeInUtterance, errorTol, cutoff float64) BargeInScores {
	var scores BargeInScores
	for _, utt := range utterances {
		truthSpeech := make([]Segment, 0, len(utt.Truth))
		for _, seg := range utt.Truth {
			if seg.IsSpeech() && seg.Duration() > errorTol {
				truthSpeech = append(truthSpeech, seg)
			}
		}

		for _, seg := range utt.Predicted {
			if !seg.IsSpeech() {
				continue
			}
			scores.Predicted++
			if IsCaptured(seg, truthSpeech, errorTol, cutoff) {
				scores.Captures++
			}
		}
		scores.Truth += len(truthSpeech)
	}

	if scores.Predicted > 0 {
		scores.Precision = float64(scores.Captures) / float64(scores.Predicted)
	}
	if scores.Truth > 0 {
		scores.Recall = float64(scores.Captures) / float64(scores.Truth)
	}
	return scores
}
