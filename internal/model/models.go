package model

// AllModels lists every table for AutoMigrate.
func AllModels() []any {
	return []any{
		&Category{},
		&Product{},
		&Price{},
		&PricingTier{},
		&TieredPrice{},
		&ProductPriceLookup{},
		&Contact{},
		&AddressBook{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderStatus{},
		&OrderTaxDetail{},
		&OrderPayment{},
		&OrderAuthorization{},
		&OrderPendingPayment{},
		&PaymentFailure{},
		&CreditCardDetail{},
		&VaultedPaymentMethod{},
		&WebhookEvent{},
		&Discount{},
		&GiftCertificate{},
		&GiftCertificateUsage{},
		&TaxClass{},
		&TaxRate{},
		&Carrier{},
		&ShippingTier{},
		&Setting{},
		&LongSetting{},
		&Country{},
		&AdminArea{},
	}
}
