package service

import (
	"fmt"
	"strings"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/apperr"
)

// ItineraryResult wraps the generated itinerary text.
type ItineraryResult struct {
	Text string `json:"text"`
}

// GenerateItinerary builds an itinerary proposal for the given trip
// description.
// TODO: call the itinerary model API instead of returning the sample text.
func GenerateItinerary(prompt string) (*ItineraryResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "o prompt não pode estar vazio")
	}

	text := fmt.Sprintf(`
### Proposta de Roteiro

**Baseado na sua descrição:** _%s_

---

#### **Dia 1-3: A Magia de Roma**
* **Hospedagem:** Hotel Boutique no charmoso bairro de Trastevere.
* **Atividades:**
  * Tour privado pelo Coliseu e Fórum Romano para evitar filas.
  * Aula de culinária para aprender a fazer pasta fresca.
  * Jantar romântico com vista para o Panteão.

#### **Dia 4-6: A Arte de Florença**
* **Transporte:** Viagem cênica de trem de alta velocidade.
* **Atividades:**
  * Visita guiada à Galeria Uffizi e à estátua de David de Michelangelo.
  * Passeio de um dia pela região vinícola de Chianti com degustação.
  * Jantar em um restaurante com estrela Michelin.

*Este é um roteiro de exemplo. Podemos personalizá-lo completamente!*
`, prompt)

	return &ItineraryResult{Text: text}, nil
}
