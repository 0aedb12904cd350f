package notify

// Message is one outbound notification: plain content, an embed, or both.
type Message struct {
	Content string
	Embed   *Embed
}

type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

func (e *Embed) AddField(name, value string) {
	e.Fields = append(e.Fields, EmbedField{Name: name, Value: value})
}

// Field returns the value of the first field called name.
func (e *Embed) Field(name string) (string, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}
