package factory

import (
	"github.com/mikey/fraudguard/internal/extractor"
	"github.com/mikey/fraudguard/internal/utils"
	"go.uber.org/zap"
)

// TextProcessorFactory creates text processors and the extractor built on them
type TextProcessorFactory struct {
	logger *zap.Logger
}

// NewTextProcessorFactory creates a new TextProcessorFactory
func NewTextProcessorFactory(logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		logger: logger,
	}
}

// CreateTextProcessor creates a new TextProcessor
func (f *TextProcessorFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger)
}

// CreateExtractor creates an extractor normalizing text with tp
func (f *TextProcessorFactory) CreateExtractor(tp *utils.TextProcessor) *extractor.Extractor {
	return extractor.New(tp, f.logger)
}
