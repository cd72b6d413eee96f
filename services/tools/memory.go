package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"tidybook/models"
	"tidybook/utils"

	"go.uber.org/zap"
)

// updateMemory applies a merge-only patch to collectedData. Empty values are
// dropped so the model can never implicitly clear a previously collected
// field.
func (d *Dispatcher) updateMemory(ctx context.Context, turn *Turn, rawArgs json.RawMessage) map[string]any {
	var args struct {
		Fields map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(rawArgs, &args); err != nil || len(args.Fields) == 0 {
		return fail("invalid_arguments", "Provide a non-empty fields object.")
	}

	applied := map[string]string{}
	for key, raw := range args.Fields {
		value := ""
		switch v := raw.(type) {
		case string:
			value = v
		case float64:
			value = fmt.Sprintf("%v", v)
		case bool:
			value = fmt.Sprintf("%v", v)
		}
		if value == "" {
			continue
		}
		turn.Mem.Set(key, value)
		applied[key] = value
	}
	return ok(map[string]any{"updated": applied})
}

// updateContact records contact details both in memory and on the
// conversation's denormalized columns. Merge-only, like updateMemory.
func (d *Dispatcher) updateContact(ctx context.Context, turn *Turn, rawArgs json.RawMessage) map[string]any {
	var args struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Address string `json:"address"`
		Zipcode string `json:"zipcode"`
	}
	_ = json.Unmarshal(rawArgs, &args)

	fields := map[string]string{}
	if args.Name != "" {
		turn.Mem.Set(models.FieldName, args.Name)
		turn.Conv.VisitorName = args.Name
		fields["visitor_name"] = args.Name
	}
	if args.Phone != "" {
		turn.Mem.Set(models.FieldPhone, args.Phone)
		turn.Conv.VisitorPhone = args.Phone
		fields["visitor_phone"] = args.Phone
	}
	if args.Email != "" {
		turn.Mem.Set(models.FieldEmail, args.Email)
		turn.Conv.VisitorEmail = args.Email
		fields["visitor_email"] = args.Email
	}
	if args.Address != "" {
		turn.Mem.Set(models.FieldAddress, args.Address)
		turn.Conv.VisitorAddr = args.Address
		fields["visitor_address"] = args.Address
	}
	if args.Zipcode != "" {
		turn.Mem.Set(models.FieldZipcode, args.Zipcode)
		turn.Conv.VisitorZip = args.Zipcode
		fields["visitor_zipcode"] = args.Zipcode
	}
	if len(fields) == 0 {
		return fail("invalid_arguments", "Provide at least one contact field.")
	}

	if err := d.Conversations.UpdateContact(ctx, turn.Conv.ID, fields); err != nil {
		utils.GetLogger().Warn("failed to persist contact fields",
			zap.String("conversationId", turn.Conv.ID), zap.Error(err))
	}
	return ok(map[string]any{"updated": fields})
}
