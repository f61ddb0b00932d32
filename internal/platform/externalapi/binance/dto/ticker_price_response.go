package dto

// TickerPriceResponse is the body of GET /api/v3/ticker/price?symbol=X.
// Binance encodes prices as decimal strings.
type TickerPriceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// ErrorResponse is the body Binance returns on 4xx responses.
type ErrorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}
