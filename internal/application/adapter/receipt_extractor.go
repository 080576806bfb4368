package adapter

import "context"

// ReceiptExtractor sends a receipt image to a generative model and returns its raw text reply.
type ReceiptExtractor interface {
	// ExtractText returns the model's unparsed reply for the image.
	ExtractText(ctx context.Context, image []byte, mimeType string) (string, error)
}
