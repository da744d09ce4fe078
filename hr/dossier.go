package hr

import "context"

// Dossier gathers everything recorded about one agent.
type Dossier struct {
	Agent          Agent                `json:"agent"`
	Affectations   []Affectation        `json:"affectations"`
	Promotions     []Promotion          `json:"promotions"`
	Mutations      []Mutation           `json:"mutations"`
	Cotations      []Cotation           `json:"cotations"`
	Discipline     []DisciplinaryAction `json:"disciplinary_actions"`
	Competences    []AgentCompetence    `json:"competences"`
	Participations []Participation      `json:"participations"`
}

// CurrentAffectation returns the most recent ACTIVE affectation.
func (d Dossier) CurrentAffectation() *Affectation {
	for i := range d.Affectations {
		if d.Affectations[i].Status == AffectationActive {
			return &d.Affectations[i]
		}
	}
	return nil
}

// LatestCotation returns the most recent cotation, validated or not.
func (d Dossier) LatestCotation() *Cotation {
	if len(d.Cotations) == 0 {
		return nil
	}
	return &d.Cotations[0]
}

// Dossier loads an agent and every record attached to it. Lists are
// ordered most recent first.
func (s *Service) Dossier(ctx context.Context, agentID string) (Dossier, error) {
	agent, err := s.GetAgent(ctx, agentID)
	if err != nil {
		return Dossier{}, err
	}
	f := RecordFilter{AgentID: agentID}
	d := Dossier{Agent: agent}

	if d.Affectations, err = s.store.ListAffectations(ctx, f); err != nil {
		return Dossier{}, err
	}
	if d.Promotions, err = s.store.ListPromotions(ctx, f); err != nil {
		return Dossier{}, err
	}
	if d.Mutations, err = s.store.ListMutations(ctx, f); err != nil {
		return Dossier{}, err
	}
	if d.Cotations, err = s.store.ListCotations(ctx, f); err != nil {
		return Dossier{}, err
	}
	if d.Discipline, err = s.store.ListDisciplinaryActions(ctx, f); err != nil {
		return Dossier{}, err
	}
	if d.Competences, err = s.store.ListAgentCompetences(ctx, agentID); err != nil {
		return Dossier{}, err
	}
	if d.Participations, err = s.store.ListParticipations(ctx, ParticipationFilter{AgentID: agentID}); err != nil {
		return Dossier{}, err
	}
	return d, nil
}

// Stats returns the dashboard counters.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}
