package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeInvalidType          ErrorCode = 107
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidPriceBar      ErrorCode = 120
	ErrCodeUnorderedSeries      ErrorCode = 121

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataAvailable       ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302
	ErrCodeIndicatorUndefined     ErrorCode = 303

	// Strategy errors (400-499)
	ErrCodeUnknownStrategy ErrorCode = 403

	// Forecast errors (500-599)
	ErrCodeModelFit           ErrorCode = 500
	ErrCodeNumericInstability ErrorCode = 501

	// Backtest errors (600-699)
	ErrCodeBacktestConfigError ErrorCode = 602
	ErrCodeBacktestCancelled   ErrorCode = 609

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidProvider       ErrorCode = 704
	ErrCodeMarketDataTimeout     ErrorCode = 705
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:                "Unknown",
	ErrCodeInvalidParameter:       "InvalidParameter",
	ErrCodeInvalidConfiguration:   "InvalidConfiguration",
	ErrCodeInsufficientData:       "InsufficientData",
	ErrCodeInvalidType:            "InvalidType",
	ErrCodeInvalidPeriod:          "InvalidPeriod",
	ErrCodeMissingParameter:       "MissingParameter",
	ErrCodeInvalidPriceBar:        "InvalidPriceBar",
	ErrCodeUnorderedSeries:        "UnorderedSeries",
	ErrCodeDataNotFound:           "DataNotFound",
	ErrCodeDataSourceUnavailable:  "DataSourceUnavailable",
	ErrCodeQueryFailed:            "QueryFailed",
	ErrCodeNoDataAvailable:        "NoDataAvailable",
	ErrCodeIndicatorNotFound:      "IndicatorNotFound",
	ErrCodeIndicatorAlreadyExists: "IndicatorAlreadyExists",
	ErrCodeIndicatorCalculation:   "IndicatorCalculation",
	ErrCodeIndicatorUndefined:     "IndicatorUndefined",
	ErrCodeUnknownStrategy:        "UnknownStrategy",
	ErrCodeModelFit:               "ModelFitError",
	ErrCodeNumericInstability:     "NumericInstability",
	ErrCodeBacktestConfigError:    "BacktestConfigError",
	ErrCodeBacktestCancelled:      "BacktestCancelled",
	ErrCodeMarketDataFetchFailed:  "MarketDataFetchFailed",
	ErrCodeMarketDataParseFailed:  "MarketDataParseFailed",
	ErrCodeInvalidProvider:        "InvalidProvider",
	ErrCodeMarketDataTimeout:      "MarketDataTimeout",
}

// String returns the symbolic name of the code, e.g. "ModelFitError".
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return "Unknown"
}
