package speechtotext

type TranscriptionOptions struct {
	// MIMEType hints the container/codec of the submitted audio. Empty lets
	// the provider sniff it.
	MIMEType string
	Language string
	Model    string
}

type TranscriptionOption func(*TranscriptionOptions)

func WithMIMEType(mimeType string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.MIMEType = mimeType
	}
}

func WithLanguage(language string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Language = language
	}
}

func WithModel(model string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Model = model
	}
}
