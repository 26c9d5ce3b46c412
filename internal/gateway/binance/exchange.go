package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2/futures"

	"vigil/internal/contract"
	"vigil/internal/decision"
	"vigil/internal/gateway"
	"vigil/internal/logger"
)

// Exchange executes against Binance USDT-margined futures.
type Exchange struct {
	source *Source
}

var _ gateway.Exchange = (*Exchange)(nil)

func NewExchange(source *Source) *Exchange {
	return &Exchange{source: source}
}

func (e *Exchange) Name() string { return "binance-futures" }

func (e *Exchange) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return e.source.CurrentPrice(ctx, symbol)
}

func (e *Exchange) AccountState(ctx context.Context) (decision.PortfolioState, error) {
	acct, err := e.source.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decision.PortfolioState{}, fmt.Errorf("binance: account: %w", err)
	}
	state := decision.PortfolioState{
		Cash:      parseFloat(acct.AvailableBalance),
		Equity:    parseFloat(acct.TotalMarginBalance),
		Positions: make(map[string]float64),
	}
	for _, p := range acct.Positions {
		if p == nil {
			continue
		}
		qty := parseFloat(p.PositionAmt)
		if qty == 0 {
			continue
		}
		state.Positions[p.Symbol] = qty
	}
	return state, nil
}

// SubmitOrder places a market order sized in base units. When the caller
// supplies no quantity it is derived from AmountUSD at the current mark.
func (e *Exchange) SubmitOrder(ctx context.Context, o gateway.Order) (gateway.Fill, error) {
	sym := toExchangeSymbol(o.Symbol)
	if sym == "" {
		return gateway.Fill{}, fmt.Errorf("binance: invalid symbol %q: %w", o.Symbol, gateway.ErrRejected)
	}
	side, err := orderSide(o.Side)
	if err != nil {
		return gateway.Fill{}, err
	}
	qty := o.Quantity
	price := 0.0
	if qty <= 0 {
		price, err = e.CurrentPrice(ctx, o.Symbol)
		if err != nil {
			return gateway.Fill{}, fmt.Errorf("binance: price %s: %w", o.Symbol, err)
		}
		lev := 1.0
		if o.Leverage > 0 {
			lev = float64(o.Leverage)
		}
		qty = o.AmountUSD * lev / price
	}
	if qty <= 0 {
		return gateway.Fill{}, fmt.Errorf("binance: zero quantity for %s: %w", o.Symbol, gateway.ErrRejected)
	}

	res, err := e.source.client.NewCreateOrderService().
		Symbol(sym).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(formatQty(qty)).
		NewOrderResponseType(futures.NewOrderRespTypeRESULT).
		Do(ctx)
	if err != nil {
		return gateway.Fill{}, fmt.Errorf("binance: submit %s %s: %w", o.Side, o.Symbol, err)
	}
	return e.fillFrom(ctx, o.Symbol, o.Side, qty, res), nil
}

// ClosePosition flattens via an opposite-side reduce-only market order.
func (e *Exchange) ClosePosition(ctx context.Context, o gateway.CloseOrder) (gateway.Fill, error) {
	sym := toExchangeSymbol(o.Symbol)
	if sym == "" || o.Quantity <= 0 {
		return gateway.Fill{}, fmt.Errorf("binance: invalid close for %q: %w", o.Symbol, gateway.ErrRejected)
	}
	side := futures.SideTypeSell
	exitSide := gateway.SideSell
	if o.Side == gateway.SideSell {
		side = futures.SideTypeBuy
		exitSide = gateway.SideBuy
	}
	res, err := e.source.client.NewCreateOrderService().
		Symbol(sym).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(formatQty(o.Quantity)).
		ReduceOnly(true).
		NewOrderResponseType(futures.NewOrderRespTypeRESULT).
		Do(ctx)
	if err != nil {
		return gateway.Fill{}, fmt.Errorf("binance: close %s: %w", o.Symbol, err)
	}
	return e.fillFrom(ctx, o.Symbol, exitSide, o.Quantity, res), nil
}

// ContractSpec maps the venue's lot size filter. USDT-margined futures trade
// whole base units, so the contract size is 1.
func (e *Exchange) ContractSpec(ctx context.Context, symbol string) (contract.Spec, error) {
	sym := toExchangeSymbol(symbol)
	info, err := e.source.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return contract.Spec{}, fmt.Errorf("binance: exchange info: %w", err)
	}
	for _, s := range info.Symbols {
		if !strings.EqualFold(s.Symbol, sym) {
			continue
		}
		spec := contract.Spec{ContractSize: 1}
		if f := s.MarketLotSizeFilter(); f != nil {
			spec.MinContracts = parseFloat(f.MinQuantity)
			spec.LotStep = parseFloat(f.StepSize)
		} else if f := s.LotSizeFilter(); f != nil {
			spec.MinContracts = parseFloat(f.MinQuantity)
			spec.LotStep = parseFloat(f.StepSize)
		}
		return spec, nil
	}
	return contract.Spec{}, fmt.Errorf("binance: unknown symbol %s", symbol)
}

// PlaceProtectiveOrders rests reduce-only STOP_MARKET / TAKE_PROFIT_MARKET
// orders against the position so the exits live at the venue.
func (e *Exchange) PlaceProtectiveOrders(ctx context.Context, o gateway.ProtectiveOrders) error {
	sym := toExchangeSymbol(o.Symbol)
	if sym == "" || o.Quantity <= 0 {
		return fmt.Errorf("binance: invalid protective orders for %q: %w", o.Symbol, gateway.ErrRejected)
	}
	exitSide := futures.SideTypeSell
	if o.Side == gateway.SideSell {
		exitSide = futures.SideTypeBuy
	}
	place := func(orderType futures.OrderType, trigger float64) error {
		_, err := e.source.client.NewCreateOrderService().
			Symbol(sym).
			Side(exitSide).
			Type(orderType).
			StopPrice(formatQty(trigger)).
			Quantity(formatQty(o.Quantity)).
			ReduceOnly(true).
			NewOrderResponseType(futures.NewOrderRespTypeACK).
			Do(ctx)
		return err
	}
	if o.StopLoss != nil && *o.StopLoss > 0 {
		if err := place(futures.OrderTypeStopMarket, *o.StopLoss); err != nil {
			return fmt.Errorf("binance: stop order %s: %w", o.Symbol, err)
		}
	}
	if o.TakeProfit != nil && *o.TakeProfit > 0 {
		if err := place(futures.OrderTypeTakeProfitMarket, *o.TakeProfit); err != nil {
			return fmt.Errorf("binance: take profit order %s: %w", o.Symbol, err)
		}
	}
	return nil
}

func (e *Exchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	if leverage <= 0 {
		return nil
	}
	sym := toExchangeSymbol(symbol)
	_, err := e.source.client.NewChangeLeverageService().
		Symbol(sym).
		Leverage(leverage).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("binance: set leverage %dx on %s: %w", leverage, symbol, err)
	}
	return nil
}

// fillFrom derives the fill from the order ack, falling back to the current
// mark when the venue omits an average price.
func (e *Exchange) fillFrom(ctx context.Context, symbol, side string, qty float64, res *futures.CreateOrderResponse) gateway.Fill {
	fill := gateway.Fill{
		Symbol:   symbol,
		Side:     side,
		Quantity: qty,
		OrderID:  strconv.FormatInt(res.OrderID, 10),
	}
	if executed := parseFloat(res.ExecutedQuantity); executed > 0 {
		fill.Quantity = executed
	}
	fill.Price = parseFloat(res.AvgPrice)
	if fill.Price <= 0 {
		if price, err := e.CurrentPrice(ctx, symbol); err == nil {
			fill.Price = price
		} else {
			logger.Warnf("binance: no fill price for order %s: %v", fill.OrderID, err)
		}
	}
	return fill
}

func orderSide(side string) (futures.SideType, error) {
	switch side {
	case gateway.SideBuy:
		return futures.SideTypeBuy, nil
	case gateway.SideSell:
		return futures.SideTypeSell, nil
	default:
		return "", fmt.Errorf("binance: unknown side %q: %w", side, gateway.ErrRejected)
	}
}

func formatQty(qty float64) string {
	return strconv.FormatFloat(qty, 'f', -1, 64)
}
