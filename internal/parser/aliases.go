package parser

// Canonical field keys shared by the XML attribute table and the CSV
// header table.
type field string

const (
	fieldAccount    field = "account"
	fieldTradeID    field = "trade_id"
	fieldSymbol     field = "symbol"
	fieldAssetClass field = "asset_class"
	fieldSide       field = "side"
	fieldQuantity   field = "quantity"
	fieldMultiplier field = "multiplier"
	fieldPrice      field = "price"
	fieldCommission field = "commission"
	fieldPnL        field = "realized_pnl"
	fieldDateTime   field = "date_time"
	fieldTime       field = "time"
	fieldExpiry     field = "expiry"
	fieldStrike     field = "strike"
	fieldPutCall    field = "put_call"
	fieldOpenClose  field = "open_close"
	fieldExchange   field = "exchange"
	fieldProceeds   field = "proceeds"
	fieldCostBasis  field = "cost_basis"
	fieldNotes      field = "notes"
)

// xmlAliases maps each canonical field to an ordered list of attribute
// names; the first attribute present with a non-empty value wins. The
// lists cover both flat-tag dialects (Trade and TradeConfirm) and are
// part of the compatibility contract with existing exports.
var xmlAliases = map[field][]string{
	fieldAccount:    {"accountId", "acctId"},
	fieldTradeID:    {"tradeID", "tradeId"},
	fieldSymbol:     {"symbol"},
	fieldAssetClass: {"assetCategory", "assetClass"},
	fieldSide:       {"buySell", "side", "buy/sell"},
	fieldQuantity:   {"quantity"},
	fieldMultiplier: {"multiplier"},
	fieldPrice:      {"tradePrice", "price"},
	fieldCommission: {"ibCommission", "commission"},
	fieldPnL:        {"fifoPnlRealized", "realizedPnL"},
	fieldDateTime:   {"dateTime", "tradeDate"},
	fieldTime:       {"tradeTime"},
	fieldExpiry:     {"expiry", "lastTradingDay"},
	fieldStrike:     {"strike"},
	fieldPutCall:    {"putCall"},
	fieldOpenClose:  {"openCloseIndicator", "openClose"},
	fieldExchange:   {"exchange", "listingExchange"},
	fieldProceeds:   {"proceeds", "netCash"},
	fieldCostBasis:  {"costBasis", "cost"},
	fieldNotes:      {"notes", "code"},
}

// csvAliases maps each canonical field to ranked lowercase header-name
// synonyms, matched by substring containment against the active header
// list. An unmatched field resolves to empty/zero, never an error.
// Shared by the plain and multi-section dialects and likewise part of
// the compatibility contract.
var csvAliases = map[field][]string{
	fieldAccount:    {"accountid", "account"},
	fieldTradeID:    {"tradeid", "ibexecid"},
	fieldSymbol:     {"symbol"},
	fieldAssetClass: {"assetclass", "asset class", "assetcategory"},
	fieldSide:       {"buy/sell", "side", "action"},
	fieldQuantity:   {"quantity", "qty"},
	fieldMultiplier: {"multiplier", "mult"},
	fieldPrice:      {"tradeprice", "t. price", "price"},
	fieldCommission: {"ibcommission", "commission", "comm"},
	fieldPnL:        {"fifopnlrealized", "realized p/l", "realizedp/l"},
	fieldDateTime:   {"date/time", "datetime", "tradedate", "trade date", "date"},
	fieldExpiry:     {"expiry", "expiration", "lasttradingday"},
	fieldStrike:     {"strike"},
	fieldPutCall:    {"put/call", "p/c"},
	fieldOpenClose:  {"open/closeindicator", "open/close", "o/c"},
	fieldExchange:   {"exchange"},
	fieldProceeds:   {"proceeds", "netcash", "net cash"},
	fieldCostBasis:  {"costbasis", "cost basis"},
	fieldNotes:      {"notes/codes", "notes", "code"},
}
