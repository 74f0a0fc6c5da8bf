package handlers

import (
	"github.com/avallone/convertd/internal/service/conversion"
	"github.com/avallone/convertd/pkg/logger"
)

type Handlers struct {
	Conversion *ConversionHandler
	History    *HistoryHandler
}

func NewHandlers(
	conversionService conversion.Service,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Conversion: NewConversionHandler(conversionService, logger),
		History:    NewHistoryHandler(conversionService, logger),
	}
}

// ErrorResponse is the JSON body every failing endpoint returns.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}
