package chat

import "tidybook/models"

// Intake objective ids, in protocol order.
const (
	ObjectiveZipcode        = "zipcode"
	ObjectiveServiceType    = "serviceType"
	ObjectiveServiceDetails = "serviceDetails"
	ObjectiveDate           = "date"
	ObjectiveName           = "name"
	ObjectivePhone          = "phone"
	ObjectiveAddress        = "address"
)

// objectiveOrder is the fixed data-collection protocol.
var objectiveOrder = []string{
	ObjectiveZipcode,
	ObjectiveServiceType,
	ObjectiveServiceDetails,
	ObjectiveDate,
	ObjectiveName,
	ObjectivePhone,
	ObjectiveAddress,
}

// IsObjectiveComplete evaluates one objective's completion predicate against
// memory and the conversation's denormalized contact fields.
func IsObjectiveComplete(id string, conv *models.Conversation, mem *models.Memory) bool {
	switch id {
	case ObjectiveZipcode:
		// Address supersedes zipcode: the ZIP is only a proxy for location,
		// waived once the real address exists.
		return mem.Get(models.FieldZipcode) != "" || conv.VisitorZip != "" ||
			mem.Get(models.FieldAddress) != "" || conv.VisitorAddr != ""
	case ObjectiveServiceType, ObjectiveServiceDetails:
		// Adding any service satisfies both at once.
		return len(mem.Cart) > 0
	case ObjectiveDate:
		// A date alone is insufficient; it must be paired with a verified
		// time.
		return mem.Get(models.FieldSelectedDate) != "" && mem.Get(models.FieldSelectedTime) != ""
	case ObjectiveName:
		return mem.Get(models.FieldName) != "" || conv.VisitorName != ""
	case ObjectivePhone:
		return mem.Get(models.FieldPhone) != "" || conv.VisitorPhone != ""
	case ObjectiveAddress:
		return mem.Get(models.FieldAddress) != "" || conv.VisitorAddr != ""
	default:
		return true
	}
}

// NextObjective returns the first unmet objective in protocol order, or ""
// when intake is complete. Asking for a ZIP before any context reads as cold,
// so when zipcode would be the very first question it is deferred to right
// after serviceDetails.
func NextObjective(conv *models.Conversation, mem *models.Memory) string {
	order := objectiveOrder
	if !IsObjectiveComplete(ObjectiveZipcode, conv, mem) && len(mem.Cart) == 0 {
		order = []string{
			ObjectiveServiceType,
			ObjectiveServiceDetails,
			ObjectiveZipcode,
			ObjectiveDate,
			ObjectiveName,
			ObjectivePhone,
			ObjectiveAddress,
		}
	}
	for _, id := range order {
		if !IsObjectiveComplete(id, conv, mem) {
			return id
		}
	}
	return ""
}
