package ml

// fixtureRecords is a small slice of the public heart failure dataset.
func fixtureRecords() []TrainingRecord {
	rows := []struct {
		age      int
		sex      string
		cp       string
		bp, chol int
		fbs      int
		ecg      string
		maxHR    int
		angina   string
		oldpeak  float64
		slope    string
		outcome  int
	}{
		{40, "M", "ATA", 140, 289, 0, "Normal", 172, "N", 0, "Up", 0},
		{49, "F", "NAP", 160, 180, 0, "Normal", 156, "N", 1, "Flat", 1},
		{37, "M", "ATA", 130, 283, 0, "ST", 98, "N", 0, "Up", 0},
		{48, "F", "ASY", 138, 214, 0, "Normal", 108, "Y", 1.5, "Flat", 1},
		{54, "M", "NAP", 150, 195, 0, "Normal", 122, "N", 0, "Up", 0},
		{39, "M", "NAP", 120, 339, 0, "Normal", 170, "N", 0, "Up", 0},
		{45, "F", "ATA", 130, 237, 0, "Normal", 170, "N", 0, "Up", 0},
		{54, "M", "ATA", 110, 208, 0, "Normal", 142, "N", 0, "Up", 0},
		{37, "M", "ASY", 140, 207, 0, "Normal", 130, "Y", 1.5, "Flat", 1},
		{48, "F", "ATA", 120, 284, 0, "Normal", 120, "N", 0, "Up", 0},
		{58, "M", "ATA", 136, 164, 0, "ST", 99, "Y", 2, "Flat", 1},
		{49, "M", "ASY", 140, 234, 0, "Normal", 140, "Y", 1, "Flat", 1},
		{60, "M", "ASY", 100, 248, 0, "Normal", 125, "N", 1, "Flat", 1},
		{36, "M", "ATA", 120, 267, 0, "Normal", 160, "N", 3, "Flat", 1},
		{65, "M", "ASY", 150, 235, 1, "LVH", 120, "Y", 1.5, "Down", 1},
		{63, "M", "TA", 145, 233, 1, "LVH", 150, "N", 2.3, "Down", 0},
		{57, "F", "ASY", 140, 241, 0, "ST", 123, "Y", 0.2, "Flat", 1},
		{41, "F", "ATA", 130, 204, 0, "LVH", 172, "N", 1.4, "Up", 0},
		{62, "M", "ASY", 120, 267, 1, "ST", 99, "Y", 1.8, "Flat", 1},
		{44, "M", "NAP", 130, 233, 0, "Normal", 179, "Y", 0.4, "Up", 0},
	}

	records := make([]TrainingRecord, len(rows))
	for i, r := range rows {
		records[i] = TrainingRecord{
			Record: Record{
				Age:            r.age,
				Sex:            r.sex,
				ChestPainType:  r.cp,
				RestingBP:      r.bp,
				Cholesterol:    r.chol,
				FastingBS:      r.fbs,
				RestingECG:     r.ecg,
				MaxHR:          r.maxHR,
				ExerciseAngina: r.angina,
				Oldpeak:        r.oldpeak,
				STSlope:        r.slope,
			},
			HeartDisease: r.outcome,
		}
	}
	return records
}

func sampleRecord() Record {
	return Record{
		Age:            54,
		Sex:            "M",
		ChestPainType:  "ASY",
		RestingBP:      140,
		Cholesterol:    239,
		FastingBS:      0,
		RestingECG:     "Normal",
		MaxHR:          160,
		ExerciseAngina: "N",
		Oldpeak:        1.2,
		STSlope:        "Flat",
	}
}
