package livesettings

const (
	GroupShop     = "SHOP"
	GroupLanguage = "LANGUAGE"
)

// RegisterShopSettings registers the store-wide groups every other module reads.
func RegisterShopSettings(r *Registry) error {
	r.RegisterGroup(Group{Key: GroupShop, Name: "Shop Settings", Ordering: 0})
	r.RegisterGroup(Group{Key: GroupLanguage, Name: "Internationalization", Ordering: 1})

	return r.Register(
		Value{
			Group:       GroupShop,
			Key:         "NAME",
			Kind:        KindString,
			Description: "Store name",
			Default:     "Satchmo Store",
		},
		Value{
			Group:       GroupShop,
			Key:         "EMAIL",
			Kind:        KindString,
			Description: "Store email address",
			Default:     "store@example.com",
		},
		Value{
			Group:       GroupShop,
			Key:         "COUNTRY",
			Kind:        KindString,
			Description: "Store country (ISO 3166 alpha-2)",
			Default:     "US",
		},
		Value{
			Group:       GroupShop,
			Key:         "IN_COUNTRY_ONLY",
			Kind:        KindBoolean,
			Description: "Only sell to customers in the store country",
			Default:     false,
		},
		Value{
			Group:       GroupShop,
			Key:         "CART_QTY",
			Kind:        KindBoolean,
			Description: "Limit cart quantities to stock on hand",
			Default:     false,
		},
		Value{
			Group:       GroupShop,
			Key:         "ORDER_EMAIL_OWNER",
			Kind:        KindBoolean,
			Description: "Notify the store owner when an order is placed",
			Default:     false,
		},
		Value{
			Group:       GroupLanguage,
			Key:         "CURRENCY_CODE",
			Kind:        KindString,
			Description: "ISO 4217 currency code",
			Default:     "USD",
		},
		Value{
			Group:       GroupLanguage,
			Key:         "CURRENCY",
			Kind:        KindString,
			Description: "Currency symbol; empty uses the symbol of the currency code",
			Default:     "",
		},
		Value{
			Group:       GroupLanguage,
			Key:         "LOCALE",
			Kind:        KindString,
			Description: "Locale used for number formatting",
			Default:     "en-US",
		},
	)
}
