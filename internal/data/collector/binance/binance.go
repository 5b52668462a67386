package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2"

	"github.com/cannonQ/pow-tracker-site/internal/utils/request"
)

// BinanceDataSource implements PriceSource with Binance spot tickers
type BinanceDataSource struct {
	client *binance.Client
	quote  string
}

// NewBinanceDataSource quotes every ticker against quote, eg: USDT.
func NewBinanceDataSource(apiKey, secretKey, quote string) *BinanceDataSource {
	client := binance.NewClient(apiKey, secretKey)
	client.HTTPClient = request.Request.GetClient()

	if quote == "" {
		quote = "USDT"
	}
	return &BinanceDataSource{
		client: client,
		quote:  strings.ToUpper(quote),
	}
}

// SetDebug turns on request logging of the underlying client.
func (b *BinanceDataSource) SetDebug(debug bool) {
	b.client.Debug = debug
}

func (b *BinanceDataSource) Name() string {
	return "binance"
}

// Symbol returns the trading pair for a project ticker.
func (b *BinanceDataSource) Symbol(ticker string) string {
	return strings.ToUpper(ticker) + b.quote
}

// Price implements PriceSource interface
func (b *BinanceDataSource) Price(ctx context.Context, ticker string) (float64, error) {
	if ticker == "" {
		return 0, fmt.Errorf("empty ticker")
	}
	symbol := b.Symbol(ticker)

	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get price for %s: %w", symbol, err)
	}

	for _, p := range prices {
		if p.Symbol != symbol {
			continue
		}
		price, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse price: %w", err)
		}
		return price, nil
	}
	return 0, fmt.Errorf("price not found for symbol: %s", symbol)
}
