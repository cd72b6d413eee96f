package tools

import (
	"context"
	"encoding/json"
	"time"

	"tidybook/models"
	"tidybook/utils"

	"go.uber.org/zap"
)

const catalogCacheTTL = 5 * time.Minute

// loadServices reads the active service list through the dispatcher-owned
// cache.
func (d *Dispatcher) loadServices(ctx context.Context) ([]models.Service, error) {
	if d.Cache != nil {
		if raw, hit := d.Cache.Get(ctx, CacheKindServices, "all"); hit {
			var services []models.Service
			if err := json.Unmarshal(raw, &services); err == nil {
				return services, nil
			}
		}
	}
	services, err := d.Catalog.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	if d.Cache != nil {
		if raw, err := json.Marshal(services); err == nil {
			d.Cache.Set(ctx, CacheKindServices, "all", raw, catalogCacheTTL)
		}
	}
	return services, nil
}

func (d *Dispatcher) loadFAQs(ctx context.Context) ([]models.FAQ, error) {
	if d.Cache != nil {
		if raw, hit := d.Cache.Get(ctx, CacheKindFAQs, "all"); hit {
			var faqs []models.FAQ
			if err := json.Unmarshal(raw, &faqs); err == nil {
				return faqs, nil
			}
		}
	}
	faqs, err := d.Catalog.ListFAQs(ctx)
	if err != nil {
		return nil, err
	}
	if d.Cache != nil {
		if raw, err := json.Marshal(faqs); err == nil {
			d.Cache.Set(ctx, CacheKindFAQs, "all", raw, catalogCacheTTL)
		}
	}
	return faqs, nil
}

func serviceView(svc models.Service) map[string]any {
	return map[string]any{
		"id":              svc.ID,
		"name":            svc.Name,
		"description":     svc.Description,
		"price":           svc.Price,
		"durationMinutes": svc.DurationMinutes,
	}
}

func (d *Dispatcher) listServices(ctx context.Context, turn *Turn, rawArgs json.RawMessage) map[string]any {
	var args struct {
		Query string `json:"query"`
	}
	_ = json.Unmarshal(rawArgs, &args)

	services, err := d.loadServices(ctx)
	if err != nil {
		utils.GetLogger().Error("list_services failed", zap.Error(err))
		return fail("catalog_error", "I couldn't load our service list just now.")
	}

	matched := false
	if args.Query != "" {
		services, matched = rankServices(args.Query, services)
	}

	views := make([]map[string]any, 0, len(services))
	for _, svc := range services {
		views = append(views, serviceView(svc))
	}
	return ok(map[string]any{"services": views, "matchedQuery": matched})
}

func (d *Dispatcher) searchFAQs(ctx context.Context, turn *Turn, rawArgs json.RawMessage) map[string]any {
	var args struct {
		Query string `json:"query"`
	}
	_ = json.Unmarshal(rawArgs, &args)

	faqs, err := d.loadFAQs(ctx)
	if err != nil {
		utils.GetLogger().Error("search_faqs failed", zap.Error(err))
		return fail("catalog_error", "I couldn't search our FAQ just now.")
	}

	ranked, matched := rankFAQs(args.Query, faqs)
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	views := make([]map[string]any, 0, len(ranked))
	for _, faq := range ranked {
		views = append(views, map[string]any{"question": faq.Question, "answer": faq.Answer})
	}
	return ok(map[string]any{"faqs": views, "matchedQuery": matched})
}

func (d *Dispatcher) addService(ctx context.Context, turn *Turn, rawArgs json.RawMessage) map[string]any {
	var args struct {
		ServiceID   string `json:"serviceId"`
		ServiceName string `json:"serviceName"`
		Quantity    int    `json:"quantity"`
	}
	_ = json.Unmarshal(rawArgs, &args)
	if args.Quantity <= 0 {
		args.Quantity = 1
	}

	services, err := d.loadServices(ctx)
	if err != nil {
		utils.GetLogger().Error("add_service failed to load catalog", zap.Error(err))
		return fail("catalog_error", "I couldn't load our service list just now.")
	}

	var svc *models.Service
	if args.ServiceID != "" {
		for i := range services {
			if services[i].ID == args.ServiceID {
				svc = &services[i]
				break
			}
		}
	}
	if svc == nil && args.ServiceName != "" {
		svc = matchServiceByName(args.ServiceName, services)
	}
	if svc == nil {
		return fail("service_not_found", "I couldn't find that service. Could you pick one from our list?")
	}

	// Dedup: a heuristic retry and a model tool call may both target the same
	// line within one turn.
	marker := turn.VisitorMessageID + "|" + svc.ID
	if turn.Mem.LastAutoAdd == marker {
		return ok(map[string]any{
			"deduped":   true,
			"cart":      cartView(turn.Mem),
			"cartTotal": turn.Mem.CartTotal(),
		})
	}

	merged := false
	for i := range turn.Mem.Cart {
		if turn.Mem.Cart[i].ServiceID == svc.ID {
			turn.Mem.Cart[i].Quantity += args.Quantity
			turn.Mem.Cart[i].Price = turn.Mem.Cart[i].UnitPrice * float64(turn.Mem.Cart[i].Quantity)
			merged = true
			break
		}
	}
	if !merged {
		turn.Mem.Cart = append(turn.Mem.Cart, models.CartLine{
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			UnitPrice:   svc.Price,
			Quantity:    args.Quantity,
			Price:       svc.Price * float64(args.Quantity),
		})
	}
	turn.Mem.LastAutoAdd = marker
	turn.Mem.LastOfferedService = svc.ID
	turn.Mem.Set(models.FieldServiceType, svc.Name)
	turn.Mem.CompleteStep(models.FieldServiceType)
	turn.Mem.CompleteStep(models.FieldServiceDetails)

	return ok(map[string]any{
		"added":     serviceView(*svc),
		"merged":    merged,
		"cart":      cartView(turn.Mem),
		"cartTotal": turn.Mem.CartTotal(),
	})
}

func cartView(mem *models.Memory) []map[string]any {
	lines := make([]map[string]any, 0, len(mem.Cart))
	for _, line := range mem.Cart {
		lines = append(lines, map[string]any{
			"serviceId":   line.ServiceID,
			"serviceName": line.ServiceName,
			"unitPrice":   line.UnitPrice,
			"quantity":    line.Quantity,
			"price":       line.Price,
		})
	}
	return lines
}

func (d *Dispatcher) viewCart(turn *Turn) map[string]any {
	return ok(map[string]any{
		"cart":      cartView(turn.Mem),
		"cartTotal": turn.Mem.CartTotal(),
		"empty":     len(turn.Mem.Cart) == 0,
	})
}
