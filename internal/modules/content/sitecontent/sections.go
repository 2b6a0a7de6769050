package sitecontent

import "github.com/folio-space/core/internal/models"

// Well known pages and sections edited from the admin panel.
const (
	PageHome    = "home"
	PageAbout   = "sobre"
	PageContact = "contato"

	SectionHero      = "hero"
	SectionTimeline  = "timeline"
	SectionQualities = "qualities"
	SectionInfo      = "info"
)

type Hero struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

type TimelineEntry struct {
	Year        string `json:"year"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"` // "work" | "education"
}

type Quality struct {
	Icon  string `json:"icon"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

type ContactInfo struct {
	Email    string `json:"email"`
	LinkedIn string `json:"linkedin"`
	Phone    string `json:"phone"`
}

// About is everything the /sobre page renders.
type About struct {
	Hero      Hero
	Timeline  []TimelineEntry
	Qualities []Quality
}

func DefaultAbout() About {
	return About{
		Hero: Hero{
			Title:       "Sobre mim",
			Description: "De entusiasta de hardware a analista de suporte e desenvolvedor. Uma jornada movida pela curiosidade e pela vontade de resolver problemas.",
		},
		Timeline: []TimelineEntry{
			{Year: "Atual", Title: "Analista de Suporte & Estudante de ADS", Description: "Resolução de incidentes, configuração de redes e otimização de processos.", Type: "work"},
			{Year: "Início", Title: "Descoberta da Tecnologia", Description: "Desmontando computadores antigos e configurando redes domésticas.", Type: "education"},
		},
		Qualities: []Quality{
			{Icon: "Target", Title: "Analítico", Desc: "Capacidade de analisar problemas complexos e encontrar a causa raiz."},
			{Icon: "Zap", Title: "Proativo", Desc: "Antecipação de problemas e busca constante por melhorias."},
			{Icon: "BookOpen", Title: "Aprendizado Contínuo", Desc: "Paixão por aprender novas tecnologias e metodologias."},
			{Icon: "Terminal", Title: "Organizado", Desc: "Gestão eficiente de tarefas e documentação detalhada."},
		},
	}
}

func DefaultContactInfo() ContactInfo {
	return ContactInfo{Email: "contato@example.com", LinkedIn: "https://www.linkedin.com/", Phone: ""}
}

func DefaultHomeHero() Hero {
	return Hero{
		Title:       "Analista de Suporte & Desenvolvedor",
		Description: "Transformando problemas em soluções tecnológicas.",
	}
}

// find returns the block for section in items, or nil.
func find(items []models.SiteContentModel, page, section string) *models.SiteContentModel {
	for i := range items {
		if items[i].PageName == page && items[i].SectionName == section {
			return &items[i]
		}
	}
	return nil
}

// decodeInto overwrites out with the section's JSON when present and valid.
// Missing or broken blocks leave the default in place.
func decodeInto(items []models.SiteContentModel, page, section string, out any) {
	if m := find(items, page, section); m != nil && len(m.ContentData) > 0 {
		_ = m.ContentData.Decode(out)
	}
}

// AboutFrom builds the about page from the stored blocks over the defaults.
func AboutFrom(items []models.SiteContentModel) About {
	a := DefaultAbout()
	var hero Hero
	decodeInto(items, PageAbout, SectionHero, &hero)
	if hero.Title != "" || hero.Description != "" {
		a.Hero = hero
	}
	var timeline []TimelineEntry
	decodeInto(items, PageAbout, SectionTimeline, &timeline)
	if timeline != nil {
		a.Timeline = timeline
	}
	var qualities []Quality
	decodeInto(items, PageAbout, SectionQualities, &qualities)
	if qualities != nil {
		a.Qualities = qualities
	}
	return a
}

func ContactInfoFrom(items []models.SiteContentModel) ContactInfo {
	info := DefaultContactInfo()
	var stored ContactInfo
	decodeInto(items, PageContact, SectionInfo, &stored)
	if stored != (ContactInfo{}) {
		info = stored
	}
	return info
}

func HomeHeroFrom(items []models.SiteContentModel) Hero {
	hero := DefaultHomeHero()
	var stored Hero
	decodeInto(items, PageHome, SectionHero, &stored)
	if stored.Title != "" {
		hero = stored
	}
	return hero
}

// Text returns the plain text of a block, or fallback when unset.
func Text(items []models.SiteContentModel, page, section, fallback string) string {
	if m := find(items, page, section); m != nil && m.ContentText != nil && *m.ContentText != "" {
		return *m.ContentText
	}
	return fallback
}
