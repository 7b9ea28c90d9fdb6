package voice

// Transcript accumulates what the user said (Input) and what the assistant
// said (Output) during the current turn.
type Transcript struct {
	Input  string
	Output string
}

func (t *Transcript) AppendInput(fragment string) {
	t.Input += fragment
}

func (t *Transcript) AppendOutput(fragment string) {
	t.Output += fragment
}

func (t *Transcript) Clear() {
	t.Input = ""
	t.Output = ""
}
