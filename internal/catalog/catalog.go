// ABOUTME: Static product catalog for the storefront: peptides, dosages, prices.
// ABOUTME: Source of truth for the /products reply, the system prompt, and checkout items.

package catalog

import (
	"fmt"
	"strings"
)

// Variant is one purchasable dosage of a product.
type Variant struct {
	Dosage     string
	PriceCents int64
}

// Product is one catalog entry. Purity applies to every variant.
type Product struct {
	Name     string
	Category string
	Purity   string
	Variants []Variant
}

// categories in display order.
var categories = []string{
	"Recovery & Repair",
	"Metabolic",
	"Growth Hormone Peptides",
	"Longevity",
}

// products is the fixed catalog. Prices are in USD cents.
var products = []Product{
	{
		Name:     "BPC-157",
		Category: "Recovery & Repair",
		Purity:   ">99%",
		Variants: []Variant{
			{Dosage: "5mg", PriceCents: 4499},
			{Dosage: "10mg", PriceCents: 7999},
		},
	},
	{
		Name:     "TB-500",
		Category: "Recovery & Repair",
		Purity:   ">98%",
		Variants: []Variant{
			{Dosage: "5mg", PriceCents: 5499},
			{Dosage: "10mg", PriceCents: 9499},
		},
	},
	{
		Name:     "Semaglutide",
		Category: "Metabolic",
		Purity:   ">99%",
		Variants: []Variant{
			{Dosage: "3mg", PriceCents: 8999},
			{Dosage: "5mg", PriceCents: 12999},
		},
	},
	{
		Name:     "AOD-9604",
		Category: "Metabolic",
		Purity:   ">98%",
		Variants: []Variant{
			{Dosage: "5mg", PriceCents: 6499},
		},
	},
	{
		Name:     "CJC-1295 (no DAC)",
		Category: "Growth Hormone Peptides",
		Purity:   ">99%",
		Variants: []Variant{
			{Dosage: "2mg", PriceCents: 3999},
			{Dosage: "5mg", PriceCents: 7499},
		},
	},
	{
		Name:     "Ipamorelin",
		Category: "Growth Hormone Peptides",
		Purity:   ">99%",
		Variants: []Variant{
			{Dosage: "5mg", PriceCents: 4299},
			{Dosage: "10mg", PriceCents: 7699},
		},
	},
	{
		Name:     "Epithalon",
		Category: "Longevity",
		Purity:   ">98%",
		Variants: []Variant{
			{Dosage: "10mg", PriceCents: 5999},
		},
	},
	{
		Name:     "NAD+",
		Category: "Longevity",
		Purity:   ">97%",
		Variants: []Variant{
			{Dosage: "100mg", PriceCents: 6999},
			{Dosage: "500mg", PriceCents: 18999},
		},
	},
}

// Products returns all catalog entries. Callers must not mutate the result.
func Products() []Product {
	return products
}

// Find returns the product and variant matching name and dosage, or false
// when no such combination exists. Matching is exact on both fields.
func Find(name, dosage string) (Product, Variant, bool) {
	for _, p := range products {
		if p.Name != name {
			continue
		}
		for _, v := range p.Variants {
			if v.Dosage == dosage {
				return p, v, true
			}
		}
	}
	return Product{}, Variant{}, false
}

// FormatPrice renders cents as a dollar amount, e.g. 4499 -> "$44.99".
func FormatPrice(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// ProductList renders the catalog reply for the /products command: products
// grouped by category, each name exactly once with its variants and purity.
func ProductList() string {
	var b strings.Builder
	b.WriteString("Our current catalog (research use only):\n")
	for _, cat := range categories {
		b.WriteString("\n")
		b.WriteString(cat)
		b.WriteString(":\n")
		for _, p := range products {
			if p.Category != cat {
				continue
			}
			variants := make([]string, 0, len(p.Variants))
			for _, v := range p.Variants {
				variants = append(variants, fmt.Sprintf("%s %s", v.Dosage, FormatPrice(v.PriceCents)))
			}
			fmt.Fprintf(&b, "  %s (purity %s): %s\n", p.Name, p.Purity, strings.Join(variants, ", "))
		}
	}
	return b.String()
}
