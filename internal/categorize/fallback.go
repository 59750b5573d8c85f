package categorize

import (
	"strings"

	"github.com/dvloznov/budgetwise/internal/parse"
)

type keywordGroup struct {
	category   string
	confidence float64
	keywords   []string
}

// Ordered keyword groups for the deterministic fallback. Specific, rarely
// ambiguous groups (Housing, Utilities, Healthcare) come before broad ones
// (Shopping) so "grocery" lands in Food & Dining and not Shopping.
var fallbackGroups = []keywordGroup{
	{
		category:   "Housing",
		confidence: 0.9,
		keywords: []string{
			"rent", "mortgage", "landlord", "apartment", "property management",
			"hoa", "homeowners association", "real estate", "lease payment",
		},
	},
	{
		category:   "Utilities",
		confidence: 0.9,
		keywords: []string{
			"electric", "electricity", "water bill", "gas bill", "sewer",
			"internet", "broadband", "comcast", "xfinity", "verizon", "at&t",
			"t-mobile", "utility", "power company", "pg&e", "con edison",
			"duke energy", "trash service", "waste management",
		},
	},
	{
		category:   "Healthcare",
		confidence: 0.9,
		keywords: []string{
			"pharmacy", "cvs", "walgreens", "rite aid", "doctor", "dental",
			"dentist", "hospital", "clinic", "medical", "urgent care",
			"optometr", "vision care", "kaiser", "aetna", "blue cross",
			"copay", "lab corp", "quest diagnostics",
		},
	},
	{
		category:   "Transportation",
		confidence: 0.85,
		keywords: []string{
			"uber", "lyft", "gas station", "shell oil", "chevron", "exxon",
			"mobil", "fuel", "parking", "toll", "transit", "metro card",
			"mta", "amtrak", "car wash", "auto repair", "jiffy lube",
			"autozone", "dmv", "oil change",
		},
	},
	{
		category:   "Food & Dining",
		confidence: 0.85,
		keywords: []string{
			"restaurant", "starbucks", "coffee", "cafe", "mcdonald",
			"chipotle", "pizza", "doordash", "grubhub", "uber eats",
			"grocery", "groceries", "whole foods", "trader joe", "safeway",
			"kroger", "albertsons", "supermarket", "deli", "bakery",
			"taco", "burger", "sushi", "diner", "food",
		},
	},
	{
		category:   "Entertainment",
		confidence: 0.8,
		keywords: []string{
			"movie", "cinema", "amc ", "regal", "theater", "theatre",
			"concert", "ticketmaster", "stubhub", "steam games", "playstation",
			"xbox", "nintendo", "bowling", "golf", "arcade", "museum",
		},
	},
	{
		category:   "Education",
		confidence: 0.85,
		keywords: []string{
			"tuition", "university", "college", "school", "udemy", "coursera",
			"textbook", "student loan", "campus", "academy",
		},
	},
	{
		category:   "Travel",
		confidence: 0.85,
		keywords: []string{
			"airline", "airlines", "airways", "flight", "delta air",
			"united air", "american air", "southwest", "jetblue", "hotel",
			"motel", "airbnb", "marriott", "hilton", "hyatt", "hertz",
			"enterprise rent", "rental car", "expedia", "booking.com",
			"cruise", "travel",
		},
	},
	{
		category:   "Subscriptions",
		confidence: 0.85,
		keywords: []string{
			"netflix", "spotify", "hulu", "disney+", "hbo", "paramount+",
			"youtube premium", "apple music", "apple.com/bill", "audible",
			"patreon", "substack", "subscription", "prime membership",
			"membership fee", "icloud", "dropbox",
		},
	},
	{
		category:   "Personal Care",
		confidence: 0.8,
		keywords: []string{
			"salon", "barber", "haircut", "spa ", "massage", "nails",
			"gym", "fitness", "planet fitness", "equinox", "yoga",
			"sephora", "ulta", "cosmetic",
		},
	},
	{
		category:   "Shopping",
		confidence: 0.7,
		keywords: []string{
			"amazon", "walmart", "target", "costco", "best buy", "ebay",
			"etsy", "ikea", "home depot", "lowe's", "lowes", "mall",
			"store", "shop", "clothing", "apparel", "nike", "adidas",
			"macy", "nordstrom", "outlet",
		},
	},
}

const (
	incomeConfidence  = 0.8
	unknownConfidence = 0.5
)

// Fallback is the deterministic keyword-based categorization used whenever
// remote classification is unavailable or fails. It always returns a result.
func Fallback(tx parse.Transaction) Categorized {
	if tx.IsIncome {
		return Categorized{Transaction: tx, Category: "Income", Confidence: incomeConfidence}
	}

	lower := strings.ToLower(tx.Description)
	for _, group := range fallbackGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return Categorized{
					Transaction: tx,
					Category:    group.category,
					Confidence:  group.confidence,
				}
			}
		}
	}

	return Categorized{Transaction: tx, Category: "Other", Confidence: unknownConfidence}
}
