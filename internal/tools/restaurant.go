package tools

import (
	"context"
	"fmt"
	"strings"
)

// Static restaurant facts. These back the info tools so the model never
// has to invent hours or menu items.
var (
	openingHours = []string{
		"Monday to Friday: 11:30 - 14:30, 17:30 - 22:00",
		"Saturday and Sunday: 11:30 - 22:00",
		"Last orders 30 minutes before closing.",
	}

	menuSections = map[string][]string{
		"ramen": {
			"Tonkotsu Ramen - rich pork bone broth, chashu, ajitama egg ($16)",
			"Shoyu Ramen - clear soy-based chicken broth, bamboo shoots ($14)",
			"Spicy Miso Ramen - miso broth with house chili paste ($15)",
			"Vegetarian Shio Ramen - kombu and shiitake broth, seasonal vegetables ($14)",
		},
		"sides": {
			"Gyoza - pan-fried pork dumplings, 5 pieces ($7)",
			"Karaage - Japanese fried chicken ($8)",
			"Edamame - sea salt ($5)",
		},
		"drinks": {
			"Ramune soda ($4)",
			"Green tea, hot or iced ($3)",
			"Asahi draft beer ($8)",
		},
	}
)

// CurrentTime reports the server's local date and time so the model can
// resolve relative dates like "tomorrow" without guessing.
func (t *Toolset) CurrentTime() Tool {
	return Tool{
		Name:        "get_current_time",
		Description: "Get the current date and time. Use this to resolve relative dates like tomorrow or next Friday.",
		Parameters:  objectSchema(nil, map[string]any{}),
		Run: func(ctx context.Context, args Args) string {
			now := t.now()
			return fmt.Sprintf("It is currently %s, %s.", now.Format("Monday, January 2, 2006"), now.Format("15:04"))
		},
	}
}

// RestaurantHours returns the opening hours.
func (t *Toolset) RestaurantHours() Tool {
	return Tool{
		Name:        "get_restaurant_hours",
		Description: "Get the restaurant's opening hours.",
		Parameters:  objectSchema(nil, map[string]any{}),
		Run: func(ctx context.Context, args Args) string {
			return fmt.Sprintf("%s is open:\n%s", t.info.Name, strings.Join(openingHours, "\n"))
		},
	}
}

// RestaurantLocation returns the address and phone number.
func (t *Toolset) RestaurantLocation() Tool {
	return Tool{
		Name:        "get_restaurant_location",
		Description: "Get the restaurant's address and contact number.",
		Parameters:  objectSchema(nil, map[string]any{}),
		Run: func(ctx context.Context, args Args) string {
			return fmt.Sprintf("%s is at %s. You can reach us at %s.", t.info.Name, t.info.Address, t.info.Phone)
		},
	}
}

// MenuInfo returns the menu, optionally filtered to one section.
func (t *Toolset) MenuInfo() Tool {
	return Tool{
		Name:        "get_menu_info",
		Description: "Get menu items and prices. Optionally filter by section: ramen, sides or drinks.",
		Parameters: objectSchema(nil, map[string]any{
			"section": stringParam("Menu section to describe: ramen, sides or drinks. Omit for the full menu."),
		}),
		Run: func(ctx context.Context, args Args) string {
			section := strings.ToLower(strings.TrimSpace(args.String("section")))
			if section != "" {
				items, ok := menuSections[section]
				if !ok {
					return fmt.Sprintf("We don't have a %q section. Our menu covers ramen, sides and drinks.", section)
				}
				return fmt.Sprintf("Our %s:\n%s", section, strings.Join(items, "\n"))
			}

			var b strings.Builder
			for _, name := range []string{"ramen", "sides", "drinks"} {
				fmt.Fprintf(&b, "%s:\n%s\n\n", strings.ToUpper(name[:1])+name[1:], strings.Join(menuSections[name], "\n"))
			}
			return strings.TrimSpace(b.String())
		},
	}
}

// InfoTools returns the read-only restaurant fact tools shared by every
// agent.
func (t *Toolset) InfoTools() []Tool {
	return []Tool{t.CurrentTime(), t.RestaurantHours(), t.RestaurantLocation(), t.MenuInfo()}
}

// ReservationTools returns the full reservation management set.
func (t *Toolset) ReservationTools() []Tool {
	return []Tool{
		t.CheckAvailability(),
		t.MakeReservation(),
		t.LookupReservation(),
		t.ModifyReservation(),
		t.DeleteReservation(),
	}
}
