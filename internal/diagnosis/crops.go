package diagnosis

// Guidance is the crop-specific background handed to the advisor so its
// prompt can name the diseases and pests actually seen on that crop.
type Guidance struct {
	CommonDiseases   []string
	CommonPests      []string
	CriticalSymptoms []string
	HighRiskSeasons  []Season
	DurationDays     int
}

var cropGuidance = map[CropType]Guidance{
	CropMaize: {
		CommonDiseases:   []string{"Gray Leaf Spot", "Northern Corn Leaf Blight", "Southern Corn Leaf Blight", "Corn Rust", "Maize Lethal Necrosis", "Aflatoxin (Aspergillus)"},
		CommonPests:      []string{"Fall Armyworm", "Stem Borers", "Grasshoppers", "Cutworms"},
		CriticalSymptoms: []string{"wilting", "discolored leaves", "stunted growth"},
		HighRiskSeasons:  []Season{SeasonRainy},
		DurationDays:     120,
	},
	CropBean: {
		CommonDiseases:   []string{"Bean Rust", "Angular Leaf Spot", "Bean Common Mosaic Virus", "Anthracnose"},
		CommonPests:      []string{"Bean Beetles", "Aphids", "Spider Mites", "Pod Borers"},
		CriticalSymptoms: []string{"yellow leaves", "wilting", "pod damage"},
		HighRiskSeasons:  []Season{SeasonRainy},
		DurationDays:     90,
	},
	CropTomato: {
		CommonDiseases:   []string{"Early Blight", "Late Blight", "Septoria Leaf Spot", "Fusarium Wilt", "Tomato Yellow Leaf Curl Virus"},
		CommonPests:      []string{"Whiteflies", "Spider Mites", "Fruit Flies", "Leaf Miners"},
		CriticalSymptoms: []string{"yellowing", "wilting", "fruit spots", "vine disease"},
		HighRiskSeasons:  []Season{SeasonRainy},
		DurationDays:     75,
	},
	CropPotato: {
		CommonDiseases:   []string{"Late Blight", "Early Blight", "Bacterial Wilt", "Potato Virus Y"},
		CommonPests:      []string{"Potato Tuber Moth", "Aphids", "Cutworms"},
		CriticalSymptoms: []string{"dark leaf lesions", "wilting", "tuber rot"},
		HighRiskSeasons:  []Season{SeasonRainy},
		DurationDays:     100,
	},
	CropRice: {
		CommonDiseases:   []string{"Rice Blast", "Bacterial Leaf Blight", "Sheath Blight", "Brown Spot"},
		CommonPests:      []string{"Stem Borers", "Rice Bugs", "Leafhoppers"},
		CriticalSymptoms: []string{"leaf lesions", "empty panicles", "lodging"},
		HighRiskSeasons:  []Season{SeasonRainy},
		DurationDays:     120,
	},
	CropWheat: {
		CommonDiseases:   []string{"Wheat Rust", "Fusarium Head Blight", "Septoria Leaf Blotch", "Powdery Mildew"},
		CommonPests:      []string{"Aphids", "Armyworms", "Hessian Fly"},
		CriticalSymptoms: []string{"orange pustules", "bleached heads", "yellowing"},
		HighRiskSeasons:  []Season{SeasonRainy},
		DurationDays:     110,
	},
	CropCassava: {
		CommonDiseases:   []string{"Cassava Mosaic Disease", "Cassava Brown Streak Disease", "Bacterial Blight"},
		CommonPests:      []string{"Cassava Mealybug", "Whiteflies", "Green Mites"},
		CriticalSymptoms: []string{"mosaic leaf patterns", "root necrosis", "leaf curl"},
		HighRiskSeasons:  []Season{SeasonDry},
		DurationDays:     300,
	},
	CropBanana: {
		CommonDiseases:   []string{"Panama Disease", "Black Sigatoka", "Banana Bunchy Top Virus", "Bacterial Wilt"},
		CommonPests:      []string{"Banana Weevil", "Nematodes", "Aphids"},
		CriticalSymptoms: []string{"leaf streaking", "wilting", "bunched leaves"},
		HighRiskSeasons:  []Season{SeasonRainy},
		DurationDays:     365,
	},
	CropMango: {
		CommonDiseases:   []string{"Anthracnose", "Powdery Mildew", "Mango Malformation"},
		CommonPests:      []string{"Fruit Flies", "Mango Hoppers", "Mealybugs"},
		CriticalSymptoms: []string{"black fruit spots", "flower blight", "sooty mold"},
		HighRiskSeasons:  []Season{SeasonRainy},
		DurationDays:     150,
	},
	CropCabbage: {
		CommonDiseases:   []string{"Black Rot", "Clubroot", "Downy Mildew"},
		CommonPests:      []string{"Diamondback Moth", "Cabbage Aphids", "Cutworms"},
		CriticalSymptoms: []string{"yellow V-shaped lesions", "stunted heads", "holes in leaves"},
		HighRiskSeasons:  []Season{SeasonRainy},
		DurationDays:     80,
	},
}

// GuidanceFor returns crop-specific background and whether the crop is known.
func GuidanceFor(crop CropType) (Guidance, bool) {
	g, ok := cropGuidance[crop]
	return g, ok
}
