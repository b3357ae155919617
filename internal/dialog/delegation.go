package dialog

import (
	"fmt"

	"concierge/internal/types"
)

// Delegation tool names as the model emits them.
const (
	NameCompleteOrEscalate       = "CompleteOrEscalate"
	NameToFlightBookingAssistant = "ToFlightBookingAssistant"
	NameToBookCarRental          = "ToBookCarRental"
	NameToHotelBookingAssistant  = "ToHotelBookingAssistant"
	NameToBookExcursion          = "ToBookExcursion"
)

// Delegation is the closed set of handoff outcomes a model turn can
// produce. The orchestration engine switches on the concrete type
// rather than probing tool-call structure.
type Delegation interface {
	isDelegation()

	// Signal returns the dialog-stack mutation this delegation implies.
	Signal() Signal
}

// CompleteOrEscalate marks the current task as completed and/or
// escalates control of the dialog back to the primary dispatcher, who
// can re-route based on the user's needs.
type CompleteOrEscalate struct {
	Cancel bool
	Reason string
}

// ToFlightBookingAssistant transfers work to the assistant that
// handles flight updates and cancellations.
type ToFlightBookingAssistant struct {
	Request string
}

// ToBookCarRental transfers work to the assistant that handles car
// rental bookings.
type ToBookCarRental struct {
	Location  string
	StartDate string
	EndDate   string
	Request   string
}

// ToHotelBookingAssistant transfers work to the assistant that handles
// hotel bookings.
type ToHotelBookingAssistant struct {
	Location     string
	CheckinDate  string
	CheckoutDate string
	Request      string
}

// ToBookExcursion transfers work to the assistant that handles trip
// recommendations and excursion bookings.
type ToBookExcursion struct {
	Location string
	Request  string
}

func (CompleteOrEscalate) isDelegation()       {}
func (ToFlightBookingAssistant) isDelegation() {}
func (ToBookCarRental) isDelegation()          {}
func (ToHotelBookingAssistant) isDelegation()  {}
func (ToBookExcursion) isDelegation()          {}

func (CompleteOrEscalate) Signal() Signal       { return Pop }
func (ToFlightBookingAssistant) Signal() Signal { return Push(types.AssistantFlight) }
func (ToBookCarRental) Signal() Signal          { return Push(types.AssistantCarRental) }
func (ToHotelBookingAssistant) Signal() Signal  { return Push(types.AssistantHotel) }
func (ToBookExcursion) Signal() Signal          { return Push(types.AssistantExcursion) }

// IsDelegationCall reports whether the tool call names one of the
// delegation tools.
func IsDelegationCall(call types.ToolCall) bool {
	switch call.Name {
	case NameCompleteOrEscalate, NameToFlightBookingAssistant,
		NameToBookCarRental, NameToHotelBookingAssistant, NameToBookExcursion:
		return true
	}
	return false
}

// Parse converts a delegation tool call into its typed variant.
// Returns an error for tool calls that are not delegations.
func Parse(call types.ToolCall) (Delegation, error) {
	switch call.Name {
	case NameCompleteOrEscalate:
		return CompleteOrEscalate{
			Cancel: boolArg(call.Args, "cancel", true),
			Reason: stringArg(call.Args, "reason"),
		}, nil
	case NameToFlightBookingAssistant:
		return ToFlightBookingAssistant{
			Request: stringArg(call.Args, "request"),
		}, nil
	case NameToBookCarRental:
		return ToBookCarRental{
			Location:  stringArg(call.Args, "location"),
			StartDate: stringArg(call.Args, "start_date"),
			EndDate:   stringArg(call.Args, "end_date"),
			Request:   stringArg(call.Args, "request"),
		}, nil
	case NameToHotelBookingAssistant:
		return ToHotelBookingAssistant{
			Location:     stringArg(call.Args, "location"),
			CheckinDate:  stringArg(call.Args, "checkin_date"),
			CheckoutDate: stringArg(call.Args, "checkout_date"),
			Request:      stringArg(call.Args, "request"),
		}, nil
	case NameToBookExcursion:
		return ToBookExcursion{
			Location: stringArg(call.Args, "location"),
			Request:  stringArg(call.Args, "request"),
		}, nil
	}
	return nil, fmt.Errorf("not a delegation tool call: %s", call.Name)
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func boolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// =============================================================================
// TOOL DECLARATIONS - what each assistant advertises to the model
// =============================================================================

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

// CompleteOrEscalateDefinition is included in every sub-assistant's
// tool list so it can return control to the dispatcher.
func CompleteOrEscalateDefinition() types.ToolDefinition {
	return types.ToolDefinition{
		Name: NameCompleteOrEscalate,
		Description: "A tool to mark the current task as completed and/or to escalate " +
			"control of the dialog to the main assistant, who can re-route the dialog " +
			"based on the user's needs.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"cancel": map[string]any{"type": "boolean", "description": "Whether to discard any partially gathered task parameters."},
				"reason": stringProp("Why control is being returned to the main assistant."),
			},
			"required": []string{"reason"},
		},
	}
}

// DispatcherDelegationDefinitions are the handoff tools the dispatcher
// advertises for routing work to specialized assistants.
func DispatcherDelegationDefinitions() []types.ToolDefinition {
	return []types.ToolDefinition{
		{
			Name:        NameToFlightBookingAssistant,
			Description: "Transfers work to a specialized assistant to handle flight updates and cancellations.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"request": stringProp("Any necessary followup questions the update flight assistant should clarify before proceeding."),
				},
				"required": []string{"request"},
			},
		},
		{
			Name:        NameToBookCarRental,
			Description: "Transfers work to a specialized assistant to handle car rental bookings.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"location":   stringProp("The location where the user wants to rent a car."),
					"start_date": stringProp("The start date of the car rental."),
					"end_date":   stringProp("The end date of the car rental."),
					"request":    stringProp("Any additional information or requests from the user regarding the car rental."),
				},
				"required": []string{"location", "start_date", "end_date", "request"},
			},
		},
		{
			Name:        NameToHotelBookingAssistant,
			Description: "Transfer work to a specialized assistant to handle hotel bookings.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"location":      stringProp("The location where the user wants to book a hotel."),
					"checkin_date":  stringProp("The check-in date for the hotel."),
					"checkout_date": stringProp("The check-out date for the hotel."),
					"request":       stringProp("Any additional information or requests from the user regarding the hotel booking."),
				},
				"required": []string{"location", "checkin_date", "checkout_date", "request"},
			},
		},
		{
			Name:        NameToBookExcursion,
			Description: "Transfers work to a specialized assistant to handle trip recommendation and other excursion bookings.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"location": stringProp("The location where the user wants to book a recommended trip."),
					"request":  stringProp("Any additional information or requests from the user regarding the trip recommendation."),
				},
				"required": []string{"location", "request"},
			},
		},
	}
}
