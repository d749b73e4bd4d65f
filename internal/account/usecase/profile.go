package usecase

import "context"

func (s *Usecase) Me(ctx context.Context) (*UserOutput, error) {
	ctx, span := s.startSpan(ctx, "Me")
	defer span.End()

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	return toUserOutput(user), nil
}
