package core

import "testing"

func TestClassifier_Classify(t *testing.T) {
	c := MustClassifier(DefaultRuleSet())

	tests := []struct {
		name    string
		address string
		want    Category
	}{
		// Postal exceptions win over everything else
		{"island with county and district", "澎湖縣馬公市中正路1號", PostOffice},
		{"kinmen", "金門縣金城鎮民生路5號", PostOffice},
		{"matsu", "連江縣南竿鄉介壽村", PostOffice},
		{"matsu alias", "馬祖南竿", PostOffice},
		{"orchid island", "臺東縣蘭嶼鄉紅頭村", PostOffice},
		{"green island", "臺東縣綠島鄉南寮村", PostOffice},
		{"liuqiu", "屏東縣琉球鄉中山路", PostOffice},
		{"parcel locker", "新竹市東區i郵箱(光復店)", PostOffice},
		{"po box chinese", "臺北郵政信箱123號", PostOffice},
		{"po box english", "PO BOX 88 臺北市", PostOffice},
		{"post office pickup", "竹北郵局自取", PostOffice},

		// District present
		{"county then district", "新竹縣竹北市中正路1號", HasDistrict},
		{"district without county", "新莊區中正路1號", HasDistrict},
		{"municipality", "臺北市信義路五段7號", HasDistrict},
		{"township", "苗栗縣頭份鎮中華路", HasDistrict},

		// Fallback
		{"street only", "中正路1號", NoDistrict},
		{"empty", "", NoDistrict},
		{"whitespace only", "   ", NoDistrict},
		{"marker in first position only", "區", NoDistrict},
		{"lowercase po box is not a marker", "po box 88", NoDistrict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.address); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}

func TestClassifier_NormalizationEquivalence(t *testing.T) {
	c := MustClassifier(DefaultRuleSet())

	pairs := [][2]string{
		{"台北市", "臺北市"},
		{"台中市西屯區台灣大道", "臺中市西屯區臺灣大道"},
		{"台東縣綠島鄉", "臺東縣綠島鄉"},
		{"  台南  ", "臺南"},
	}
	for _, p := range pairs {
		if a, b := c.Classify(p[0]), c.Classify(p[1]); a != b {
			t.Errorf("Classify(%q) = %v, Classify(%q) = %v, want equal", p[0], a, p[1], b)
		}
	}

	if got := c.Normalize(" 台北市 "); got != "臺北市" {
		t.Errorf("Normalize = %q, want %q", got, "臺北市")
	}
	once := c.Normalize("台中市")
	if twice := c.Normalize(once); twice != once {
		t.Errorf("Normalize not idempotent: %q then %q", once, twice)
	}
}

func TestClassifier_DistrictVariants(t *testing.T) {
	tests := []struct {
		name    string
		rule    DistrictRule
		window  SearchWindow
		address string
		want    Category
	}{
		{"county_then_district needs county", RuleCountyThenDistrict, SearchWindow{Mode: WindowFull}, "新莊區中正路1號", NoDistrict},
		{"county_then_district with county", RuleCountyThenDistrict, SearchWindow{Mode: WindowFull}, "新北市新莊區中正路1號", HasDistrict},
		{"county_or_district accepts county alone", RuleCountyOrDistrict, SearchWindow{Mode: WindowFull}, "宜蘭縣中山路", HasDistrict},
		{"district rule rejects county alone", RuleDistrict, SearchWindow{Mode: WindowFull}, "宜蘭縣中山路", NoDistrict},
		{"first_n sees marker inside window", RuleDistrict, SearchWindow{Mode: WindowFirstN, N: 10}, "新竹縣竹北市中正路1號", HasDistrict},
		{"first_n misses marker outside window", RuleDistrict, SearchWindow{Mode: WindowFirstN, N: 4}, "中正路一段巷弄新莊區", NoDistrict},
		{"full window finds late marker", RuleDistrict, SearchWindow{Mode: WindowFull}, "中正路一段巷弄新莊區", HasDistrict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := DefaultRuleSet()
			rs.DistrictRule = tt.rule
			rs.SearchWindow = tt.window

			c, err := NewClassifier(rs)
			if err != nil {
				t.Fatalf("NewClassifier: %v", err)
			}
			if got := c.Classify(tt.address); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}

func TestClassifier_InvalidRules(t *testing.T) {
	rs := DefaultRuleSet()
	rs.DistrictMarkers = nil

	if _, err := NewClassifier(rs); err == nil {
		t.Error("NewClassifier with no district markers should fail")
	}
}

func TestCharClass_EscapesMetacharacters(t *testing.T) {
	got := charClass([]string{"-", "]", "區", "區"})
	want := `[\-\]區]`
	if got != want {
		t.Errorf("charClass = %q, want %q", got, want)
	}
}
