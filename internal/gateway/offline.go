package gateway

import (
	"context"
	"time"

	"github.com/verte-zerg/newstype/internal/model"
)

type sample struct {
	id      string
	title   string
	text    string
	titleFR string
	textFR  string
}

var samples = map[string][]sample{
	"top": {
		{
			id:      "1",
			title:   "Global Climate Summit Addresses Key Issues",
			text:    "World leaders gather to discuss urgent climate action and set new emission targets. In a historic meeting, representatives from over 190 countries have agreed to accelerate efforts to combat climate change. The summit, which lasted for three days, concluded with a joint statement emphasizing the need for immediate action to reduce carbon emissions. Several major economies announced new targets that aim to achieve carbon neutrality by 2050.",
			titleFR: "Sommet mondial sur le changement climatique",
			textFR:  "Les dirigeants mondiaux se sont réunis pour discuter des actions urgentes contre le changement climatique et fixer de nouveaux objectifs d'émission. Lors d'une réunion historique, des représentants de plus de 190 pays ont convenu d'accélérer les efforts pour lutter contre le changement climatique. Le sommet, qui a duré trois jours, s'est conclu par une déclaration commune soulignant la nécessité d'une action immédiate pour réduire les émissions de carbone.",
		},
		{
			id:      "2",
			title:   "New Study Shows Benefits of Mediterranean Diet",
			text:    "A comprehensive 10-year study has demonstrated significant health improvements among participants following a traditional Mediterranean diet. The research, conducted across multiple countries with over 12,000 participants, found that those who consistently adhered to a diet rich in olive oil, nuts, fruits, vegetables, and fish had a 30% lower risk of heart disease and a 22% reduction in overall mortality.",
			titleFR: "Nouvelle étude sur les bienfaits du régime méditerranéen",
			textFR:  "Une étude complète de 10 ans a démontré des améliorations significatives de la santé chez les participants suivant un régime méditerranéen traditionnel. La recherche, menée dans plusieurs pays avec plus de 12 000 participants, a révélé que ceux qui adhéraient constamment à un régime riche en huile d'olive, noix, fruits, légumes et poisson avaient un risque de maladie cardiaque inférieur de 30 %.",
		},
	},
	"politics": {
		{
			id:      "3",
			title:   "Electoral Reform Debate Heats Up",
			text:    "Lawmakers debate controversial bill that would fundamentally change the electoral system. Supporters say the proposed changes would make elections more fair and accessible, while critics argue they could favor one party over others. Protests have erupted in several major cities, with citizens expressing views on both sides of the debate.",
			titleFR: "Débat sur la réforme électorale",
			textFR:  "Les législateurs débattent d'un projet de loi controversé qui modifierait fondamentalement le système électoral. Les partisans affirment que les changements proposés rendraient les élections plus équitables et plus accessibles, tandis que les critiques soutiennent qu'ils pourraient favoriser un parti au détriment des autres.",
		},
		{
			id:      "4",
			title:   "New Poll Shows Shift in Public Opinion",
			text:    "A recent national poll indicates a significant shift in public opinion on several key political issues. The results suggest voters are increasingly concerned about economic inequality and climate change, while worries about immigration have decreased compared to previous years. Political analysts suggest this shift could influence campaign strategies for upcoming elections.",
			titleFR: "Nouveau sondage montre un changement dans l'opinion publique",
			textFR:  "Un sondage national récent indique un changement significatif dans l'opinion publique sur plusieurs questions politiques clés. Les résultats suggèrent que les électeurs sont de plus en plus préoccupés par les inégalités économiques et le changement climatique.",
		},
	},
}

// Offline serves built-in sample articles without a network or API key.
type Offline struct {
	Now func() time.Time
}

// Fetch implements Fetcher. Categories without samples reuse the politics set.
func (o Offline) Fetch(ctx context.Context, req Request) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	set, ok := samples[req.Category]
	if !ok {
		set = samples["politics"]
	}
	country := req.Country
	if country == "" {
		country = "us"
	}
	lang := model.LanguageFor(country)

	start := req.Offset
	if start < 0 {
		start = 0
	}
	if start > len(set) {
		start = len(set)
	}
	end := start + PageSize
	if end > len(set) {
		end = len(set)
	}
	articles := make([]model.Article, 0, end-start)
	for _, s := range set[start:end] {
		title, text := s.title, s.text
		if lang == "fr" {
			title, text = s.titleFR, s.textFR
		}
		articles = append(articles, model.Article{
			ID:            model.ArticleID(s.id),
			Title:         title,
			Text:          text,
			URL:           "https://example.com/news/" + s.id,
			PublishDate:   now().UTC().Format(time.RFC3339),
			SourceCountry: country,
			Language:      lang,
		})
	}
	return preparePage(articles, &model.Quota{Requested: 1, Used: 10, Remaining: 990}), nil
}
