package registry

import "github.com/ppiankov/foodlens/internal/model"

var builtin = mustNew(builtinEntries)

func mustNew(entries []model.RegistryEntry) *Registry {
	r, err := New(entries)
	if err != nil {
		panic(err)
	}
	return r
}

// builtinEntries is the default catalog. Order matters: the first match wins.
var builtinEntries = []model.RegistryEntry{
	{
		CanonicalName: "Red Dye 40",
		Aliases:       []string{"Allura Red AC", "FD&C Red No. 40", "E129"},
		Severity:      model.SeverityMedium,
		Category:      model.CategoryColoring,
		Warnings:      []string{"May cause hyperactivity in children", "Potential carcinogen"},
		BannedRegions: []string{"Norway", "Finland", "France"},
		Description:   "Artificial food coloring linked to behavioral issues in children",
	},
	{
		CanonicalName: "Trans Fats",
		Aliases:       []string{"Partially Hydrogenated Oil", "Hydrogenated Vegetable Oil"},
		Severity:      model.SeverityCritical,
		Category:      model.CategoryOil,
		Warnings:      []string{"Increases heart disease risk", "Raises bad cholesterol"},
		BannedRegions: []string{"Denmark", "Switzerland", "New York"},
		Description:   "Artificial fats that significantly increase cardiovascular disease risk",
	},
	{
		CanonicalName: "TBHQ",
		Aliases:       []string{"Tertiary Butylhydroquinone", "tBHQ"},
		Severity:      model.SeverityMedium,
		Category:      model.CategoryPreservative,
		Warnings:      []string{"Potential carcinogen", "May cause nausea"},
		BannedRegions: []string{"Japan", "European Union"},
		Description:   "Petroleum-derived preservative with potential health risks",
	},
	{
		CanonicalName: "Palm Oil",
		Aliases:       []string{"Elaeis guineensis", "Palm Kernel Oil"},
		Severity:      model.SeverityLow,
		Category:      model.CategoryOil,
		Warnings:      []string{"Environmental concern", "High in saturated fats"},
		Description:   "Controversial oil due to environmental impact and health concerns",
	},
	{
		CanonicalName: "High Fructose Corn Syrup",
		Aliases:       []string{"HFCS", "Corn Syrup", "Glucose-Fructose Syrup"},
		Severity:      model.SeverityMedium,
		Category:      model.CategorySweetener,
		Warnings:      []string{"Linked to obesity", "May cause insulin resistance"},
		Description:   "Processed sweetener linked to metabolic disorders",
	},
	{
		CanonicalName: "Aspartame",
		Aliases:       []string{"NutraSweet", "Equal", "E951"},
		Severity:      model.SeverityMedium,
		Category:      model.CategorySweetener,
		Warnings:      []string{"Potential neurological effects", "May cause headaches"},
		Description:   "Artificial sweetener with controversial health effects",
	},
	{
		CanonicalName: "MSG",
		Aliases:       []string{"Monosodium Glutamate", "E621", "Glutamic Acid"},
		Severity:      model.SeverityLow,
		Category:      model.CategoryAdditive,
		Warnings:      []string{"May cause headaches", "Sensitivity reactions"},
		Description:   "Flavor enhancer that may cause adverse reactions in sensitive individuals",
	},
	{
		CanonicalName: "Sodium Nitrite",
		Aliases:       []string{"E250", "Sodium Nitrate", "E251"},
		Severity:      model.SeverityMedium,
		Category:      model.CategoryPreservative,
		Warnings:      []string{"Potential carcinogen", "Forms nitrosamines"},
		Description:   "Preservative that may form cancer-causing compounds",
	},
}
