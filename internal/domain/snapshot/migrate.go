package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Decode parses a persisted snapshot document of any known schema version
// and returns a validated, current-version snapshot. This is the single
// place legacy shapes are understood; readers never probe fields themselves.
func Decode(data []byte) (*MarketSnapshot, error) {
	if !gjson.ValidBytes(data) {
		return nil, validationErrorf("document is not valid JSON")
	}
	version := gjson.GetBytes(data, "schema_version").Int()
	var snap *MarketSnapshot
	var err error
	switch {
	case version >= SchemaVersion:
		snap = &MarketSnapshot{}
		if uerr := json.Unmarshal(data, snap); uerr != nil {
			return nil, fmt.Errorf("decode v%d snapshot: %w", version, uerr)
		}
	default:
		snap, err = migrateLegacy(data)
		if err != nil {
			return nil, err
		}
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// migrateLegacy lifts an unversioned (v1) document into the current schema.
// Known legacy quirks, each fixed at this one conversion point:
//   - pools may sit at the top level instead of under "results"
//   - pct_chg is stored as a percent (3.5, not 0.035)
//   - amount is stored in wan (10k yuan) under "amount_wan"
//   - scan_time may be named "timestamp"
//   - summary counts are unreliable and are recomputed from the pools
func migrateLegacy(data []byte) (*MarketSnapshot, error) {
	doc := gjson.ParseBytes(data)

	tradeDate := doc.Get("trade_date").String()
	if tradeDate == "" {
		tradeDate = doc.Get("date").String()
	}
	scanTime := doc.Get("scan_time").String()
	if scanTime == "" {
		scanTime = doc.Get("timestamp").String()
	}
	mode := Mode(doc.Get("mode").String())
	if mode == "" {
		mode = ModeIntraday
	}

	root := doc.Get("results")
	if !root.Exists() {
		root = doc
	}

	snap := &MarketSnapshot{
		SchemaVersion: SchemaVersion,
		TradeDate:     tradeDate,
		ScanTime:      scanTime,
		Mode:          mode,
	}
	snap.Results.EvidenceMatrix = legacyEvidence(root.Get("evidence_matrix"))
	snap.Results.Opportunities = legacyPool(root.Get("opportunities"))
	snap.Results.Watchlist = legacyPool(root.Get("watchlist"))
	snap.Results.Blacklist = legacyPool(root.Get("blacklist"))
	snap.ComputeSummary()
	return snap, nil
}

func legacyPool(arr gjson.Result) []InstrumentRecord {
	if !arr.Exists() {
		return nil
	}
	records := make([]InstrumentRecord, 0, int(arr.Get("#").Int()))
	arr.ForEach(func(_, item gjson.Result) bool {
		records = append(records, legacyRecord(item))
		return true
	})
	return records
}

func legacyRecord(item gjson.Result) InstrumentRecord {
	code := item.Get("code").String()
	code6 := item.Get("code_6digit").String()
	if code6 == "" && len(code) >= 6 {
		code6 = code[:6]
	}

	price := item.Get("price_data")
	if !price.Exists() {
		price = item.Get("price")
	}
	flow := item.Get("flow_data")
	if !flow.Exists() {
		flow = item.Get("flow")
	}

	amountYuan := price.Get("amount").Float()
	if wan := price.Get("amount_wan"); wan.Exists() {
		amountYuan = wan.Float() * 1e4
	}

	return InstrumentRecord{
		Code:       code,
		Code6Digit: code6,
		Name:       item.Get("name").String(),
		Price: PriceData{
			Close:      price.Get("close").Float(),
			PctChg:     price.Get("pct_chg").Float() / 100, // legacy percent
			AmountYuan: amountYuan,
			Open:       price.Get("open").Float(),
			High:       price.Get("high").Float(),
			Low:        price.Get("low").Float(),
		},
		Flow: FlowData{
			MainNetInflowYuan: flow.Get("main_net_inflow").Float(),
			SuperLargeYuan:    flow.Get("super_large").Float(),
			LargeYuan:         flow.Get("large").Float(),
			MediumYuan:        flow.Get("medium").Float(),
			SmallYuan:         flow.Get("small").Float(),
		},
		RiskScore:   item.Get("risk_score").Float(),
		AttackScore: item.Get("attack_score").Float(),
		TrapSignals: legacyStrings(item.Get("trap_signals")),
		CapitalType: item.Get("capital_type").String(),
	}
}

func legacyEvidence(m gjson.Result) EvidenceMatrix {
	cell := func(name string) EvidenceCell {
		c := m.Get(name)
		return EvidenceCell{
			Quality:   c.Get("quality").Float(),
			ErrorRate: c.Get("error_rate").Float(),
			Score:     c.Get("score").Float(),
		}
	}
	return EvidenceMatrix{
		Technical:       cell("technical"),
		FundFlow:        cell("fund_flow"),
		MarketSentiment: cell("market_sentiment"),
	}
}

func legacyStrings(arr gjson.Result) []string {
	if !arr.Exists() {
		return nil
	}
	var out []string
	arr.ForEach(func(_, v gjson.Result) bool {
		out = append(out, v.String())
		return true
	})
	return out
}
