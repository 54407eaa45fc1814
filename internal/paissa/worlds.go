package paissa

import (
	"sort"
	"strings"
)

// dataCenters maps each data center to the worlds it hosts. Used by the
// command surface to validate datacenter/world pairs.
var dataCenters = map[string][]string{
	"primal":    {"behemoth", "excalibur", "exodus", "famfrit", "hyperion", "lamia", "leviathan", "ultros"},
	"aether":    {"adamantoise", "cactuar", "faerie", "gilgamesh", "jenova", "midgardsormr", "sargatanas", "siren"},
	"crystal":   {"balmung", "brynhildr", "coeurl", "diabolos", "goblin", "malboro", "mateus", "zalera"},
	"dynamis":   {"cuchulainn", "golem", "halicarnassus", "kraken", "maduin", "marilith", "rafflesia", "seraph"},
	"light":     {"alpha", "lich", "odin", "phoenix", "raiden", "shiva", "twintania", "zodiark"},
	"chaos":     {"cerberus", "louisoix", "moogle", "omega", "phantom", "ragnarok", "sagittarius", "spriggan"},
	"elemental": {"aegis", "atomos", "carbuncle", "garuda", "gungnir", "kujata", "ramuh", "tonberry", "typhon", "unicorn"},
	"gaia":      {"alexander", "bahamut", "durandal", "fenrir", "ifrit", "ridill", "tiamat", "ultima", "valefor", "yojimbo", "zeromus"},
	"mana":      {"anima", "asura", "belias", "chocobo", "hades", "ixion", "mandragora", "masamune", "pandaemonium", "shinryu", "titan"},
	"meteor":    {"bismarck", "ravana", "sephirot", "sophia", "susano", "zurvan"},
}

// worldIDs maps world names to their numeric PaissaDB/Lodestone ids.
var worldIDs = map[string]int{
	// Primal
	"behemoth":  78,
	"excalibur": 93,
	"exodus":    53,
	"famfrit":   35,
	"hyperion":  95,
	"lamia":     55,
	"leviathan": 64,
	"ultros":    77,

	// Aether
	"adamantoise":  73,
	"cactuar":      79,
	"faerie":       54,
	"gilgamesh":    63,
	"jenova":       40,
	"midgardsormr": 65,
	"sargatanas":   99,
	"siren":        57,

	// Crystal
	"balmung":   91,
	"brynhildr": 34,
	"coeurl":    74,
	"diabolos":  62,
	"goblin":    81,
	"malboro":   75,
	"mateus":    37,
	"zalera":    41,

	// Dynamis
	"cuchulainn":    408,
	"golem":         411,
	"halicarnassus": 406,
	"kraken":        409,
	"maduin":        407,
	"marilith":      404,
	"rafflesia":     410,
	"seraph":        405,

	// Light
	"alpha":     402,
	"lich":      36,
	"odin":      66,
	"phoenix":   56,
	"raiden":    403,
	"shiva":     67,
	"twintania": 33,
	"zodiark":   42,

	// Chaos
	"cerberus":    80,
	"louisoix":    83,
	"moogle":      71,
	"omega":       39,
	"phantom":     401,
	"ragnarok":    97,
	"sagittarius": 400,
	"spriggan":    85,

	// Elemental
	"aegis":     90,
	"atomos":    68,
	"carbuncle": 45,
	"garuda":    58,
	"gungnir":   94,
	"kujata":    49,
	"ramuh":     60,
	"tonberry":  72,
	"typhon":    50,
	"unicorn":   30,

	// Gaia
	"alexander": 43,
	"bahamut":   69,
	"durandal":  92,
	"fenrir":    46,
	"ifrit":     59,
	"ridill":    98,
	"tiamat":    76,
	"ultima":    51,
	"valefor":   52,
	"yojimbo":   31,
	"zeromus":   32,

	// Mana
	"anima":        44,
	"asura":        23,
	"belias":       24,
	"chocobo":      70,
	"hades":        47,
	"ixion":        48,
	"mandragora":   82,
	"masamune":     96,
	"pandaemonium": 28,
	"shinryu":      29,
	"titan":        61,

	// Meteor
	"bismarck": 22,
	"ravana":   21,
	"sephirot": 86,
	"sophia":   87,
	"susano":   89,
	"zurvan":   88,
}

// WorldID resolves a world name (case-insensitive) to its numeric id.
func WorldID(world string) (int, bool) {
	id, ok := worldIDs[strings.ToLower(strings.TrimSpace(world))]
	return id, ok
}

// KnownWorld reports whether the world name is recognized.
func KnownWorld(world string) bool {
	_, ok := WorldID(world)
	return ok
}

// DataCenters returns all known data center names, sorted.
func DataCenters() []string {
	names := make([]string, 0, len(dataCenters))
	for name := range dataCenters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DataCenterWorlds returns the worlds of a data center, or false when
// the data center is unknown.
func DataCenterWorlds(dataCenter string) ([]string, bool) {
	worlds, ok := dataCenters[strings.ToLower(strings.TrimSpace(dataCenter))]
	return worlds, ok
}

// WorldInDataCenter reports whether the world belongs to the data center.
func WorldInDataCenter(dataCenter, world string) bool {
	worlds, ok := DataCenterWorlds(dataCenter)
	if !ok {
		return false
	}
	world = strings.ToLower(strings.TrimSpace(world))
	for _, w := range worlds {
		if w == world {
			return true
		}
	}
	return false
}
