package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/Stuuu223/myquanttool/internal/domain/classify"
	"github.com/Stuuu223/myquanttool/internal/domain/quant"
	"github.com/Stuuu223/myquanttool/internal/store"
)

// Vendor quote endpoints. Field ids per the push2 quote protocol:
// f2 price, f3 pct_chg(%), f5 volume, f10 volume_ratio, f12 code, f14 name,
// f17 open, f15 high, f16 low, f23 amount,
// f62 main net inflow, f66 super-large, f72 large, f78 medium, f84 small.
const (
	eastmoneyListURL = "https://push2.eastmoney.com/api/qt/clist/get"
	quoteFields      = "f2,f3,f5,f10,f12,f14,f15,f16,f17,f23"
	flowFields       = "f12,f62,f66,f72,f78,f84"
)

// EastmoneyConfig configures the vendor adapter's own resilience policy.
type EastmoneyConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RetryCount     int
	RequestsPerSec float64
}

// DefaultEastmoneyConfig returns the adapter defaults.
func DefaultEastmoneyConfig() EastmoneyConfig {
	return EastmoneyConfig{
		BaseURL:        eastmoneyListURL,
		Timeout:        5 * time.Second,
		RetryCount:     3,
		RequestsPerSec: 4,
	}
}

// Eastmoney adapts the push2 quote API to the provider interfaces. All
// retry/backoff, rate limiting and circuit breaking for this vendor lives
// in this adapter.
type Eastmoney struct {
	client  *resty.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	baseURL string
}

// NewEastmoney builds the adapter.
func NewEastmoney(cfg EastmoneyConfig) *Eastmoney {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36").
		SetHeader("Referer", "https://quote.eastmoney.com/")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "eastmoney",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("provider circuit state changed")
		},
	})

	return &Eastmoney{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		breaker: breaker,
		baseURL: cfg.BaseURL,
	}
}

// FetchTechnical implements MarketDataProvider. Vendor pct_chg arrives as a
// percent and amount as yuan; conversion to fractions happens at this one
// boundary.
func (e *Eastmoney) FetchTechnical(ctx context.Context, tradeDate string, codes []string) (map[string]*classify.TechnicalMetrics, error) {
	body, err := e.fetch(ctx, quoteFields)
	if err != nil {
		return nil, err
	}

	want := codeSet(codes)
	out := make(map[string]*classify.TechnicalMetrics, len(codes))
	gjson.GetBytes(body, "data.diff").ForEach(func(_, item gjson.Result) bool {
		code6 := item.Get("f12").String()
		code, ok := want[code6]
		if !ok {
			return true
		}
		out[code] = &classify.TechnicalMetrics{
			Close:       item.Get("f2").Float(),
			PctChg:      quant.FractionFromPercent(item.Get("f3").Float()),
			VolumeRatio: item.Get("f10").Float(),
			High:        item.Get("f15").Float(),
			Low:         item.Get("f16").Float(),
			Open:        item.Get("f17").Float(),
			AmountYuan:  item.Get("f23").Float(),
		}
		return true
	})
	return out, nil
}

// FetchFlow implements FlowProvider. All flow fields arrive yuan-denominated.
func (e *Eastmoney) FetchFlow(ctx context.Context, tradeDate string, codes []string) (map[string]*classify.FlowMetrics, error) {
	body, err := e.fetch(ctx, flowFields)
	if err != nil {
		return nil, err
	}

	want := codeSet(codes)
	out := make(map[string]*classify.FlowMetrics, len(codes))
	gjson.GetBytes(body, "data.diff").ForEach(func(_, item gjson.Result) bool {
		code6 := item.Get("f12").String()
		code, ok := want[code6]
		if !ok {
			return true
		}
		out[code] = &classify.FlowMetrics{
			MainNetInflowYuan: item.Get("f62").Float(),
			SuperLargeYuan:    item.Get("f66").Float(),
			LargeYuan:         item.Get("f72").Float(),
			MediumYuan:        item.Get("f78").Float(),
			SmallYuan:         item.Get("f84").Float(),
		}
		return true
	})
	return out, nil
}

// FetchAuction implements MarketDataProvider for pre-open auction samples.
// Vendor auction change is a percent; rows carry fractions.
func (e *Eastmoney) FetchAuction(ctx context.Context, tradeDate string) ([]store.AuctionRow, error) {
	body, err := e.fetch(ctx, quoteFields)
	if err != nil {
		return nil, err
	}

	sampleTime := time.Now().Format("15:04:05")
	var rows []store.AuctionRow
	gjson.GetBytes(body, "data.diff").ForEach(func(_, item gjson.Result) bool {
		rows = append(rows, store.AuctionRow{
			Date:          tradeDate,
			AuctionTime:   sampleTime,
			Code:          qualifyCode(item.Get("f12").String()),
			AuctionPrice:  item.Get("f2").Float(),
			AuctionVolume: item.Get("f5").Int(),
			AuctionChange: quant.FractionFromPercent(item.Get("f3").Float()),
			VolumeRatio:   item.Get("f10").Float(),
		})
		return true
	})
	return rows, nil
}

// FetchSentiment implements SentimentProvider from market breadth: the
// fraction of instruments advancing, scaled to [0,100].
func (e *Eastmoney) FetchSentiment(ctx context.Context, tradeDate string) (*classify.SentimentMetrics, error) {
	body, err := e.fetch(ctx, "f3,f12")
	if err != nil {
		return nil, err
	}

	total, advancing := 0, 0
	gjson.GetBytes(body, "data.diff").ForEach(func(_, item gjson.Result) bool {
		total++
		if item.Get("f3").Float() > 0 {
			advancing++
		}
		return true
	})
	if total == 0 {
		return nil, fmt.Errorf("eastmoney sentiment: empty quote list")
	}
	heat := 100 * float64(advancing) / float64(total)
	return &classify.SentimentMetrics{MarketHeat: heat, SectorStrength: heat}, nil
}

func (e *Eastmoney) fetch(ctx context.Context, fields string) ([]byte, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := e.breaker.Execute(func() (interface{}, error) {
		resp, err := e.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"pn":     "1",
				"pz":     "5000",
				"po":     "1",
				"np":     "1",
				"fltt":   "2",
				"invt":   "2",
				"fs":     "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23",
				"fields": fields,
			}).
			Get(e.baseURL)
		if err != nil {
			return nil, fmt.Errorf("eastmoney request: %w", err)
		}
		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("eastmoney status %d", resp.StatusCode())
		}
		body := resp.Body()
		if !gjson.ValidBytes(body) {
			return nil, fmt.Errorf("eastmoney returned invalid JSON")
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// codeSet maps bare 6-digit codes back to their exchange-qualified form.
func codeSet(codes []string) map[string]string {
	m := make(map[string]string, len(codes))
	for _, c := range codes {
		m[strings.SplitN(c, ".", 2)[0]] = c
	}
	return m
}

// qualifyCode attaches the exchange suffix from the code's numeric prefix.
func qualifyCode(code6 string) string {
	if strings.HasPrefix(code6, "6") {
		return code6 + ".SH"
	}
	return code6 + ".SZ"
}
